package display

import (
	"github.com/rs/zerolog/log"

	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

// MethodCodec holds the argument and result codecs of one method.
type MethodCodec struct {
	Args   Codec
	Result Codec
}

// ForMethod builds the codecs of a method signature.
func ForMethod(f *idl.Func) MethodCodec {
	return MethodCodec{Args: ForTypes(f.Args), Result: ForTypes(f.Rets)}
}

// ForService builds codecs for every method of a service.
func ForService(svc *idl.Service) map[string]MethodCodec {
	out := make(map[string]MethodCodec, len(svc.Methods))
	for _, m := range svc.Methods {
		if f := m.Func(); f != nil {
			out[m.Name] = ForMethod(f)
		}
	}
	return out
}

// TransformArgs converts display arguments to Candid. A single argument is
// converted on its own, several as a tuple. Conversion failures leave the
// arguments as they were so the encoder reports the problem.
func TransformArgs(codec Codec, args []any) []any {
	switch len(args) {
	case 0:
		return args
	case 1:
		conv, err := codec.ToCandid(args[0])
		if err != nil {
			log.Debug().Err(err).Msg("display argument left unconverted")
			return args
		}
		return []any{conv}
	default:
		conv, err := codec.ToCandid(args)
		if err != nil {
			log.Debug().Err(err).Msg("display arguments left unconverted")
			return args
		}
		if items, ok := conv.([]any); ok {
			return items
		}
		return args
	}
}

// TransformResult converts a decoded result to display form.
func TransformResult(codec Codec, result any) any {
	if result == nil {
		return nil
	}
	return codec.ToDisplay(result)
}
