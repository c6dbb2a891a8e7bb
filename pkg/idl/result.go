package idl

import (
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
)

// ExtractOkResult unwraps Result-shaped values. Both the Ok/Err and ok/err
// spellings are recognised; an error case becomes a *icerrors.CanisterError.
// Anything else is returned unchanged.
func ExtractOkResult(result any) (any, error) {
	switch r := result.(type) {
	case Variant:
		return extractLabel(r.Label, r.Value, result)
	case *Variant:
		if r == nil {
			return nil, nil
		}
		return extractLabel(r.Label, r.Value, result)
	case map[string]any:
		for _, label := range []string{"Ok", "ok", "Err", "err"} {
			if v, ok := r[label]; ok {
				return extractLabel(label, v, result)
			}
		}
	}
	return result, nil
}

func extractLabel(label string, value any, whole any) (any, error) {
	switch label {
	case "Ok", "ok":
		return value, nil
	case "Err", "err":
		return nil, icerrors.NewCanisterError(value)
	default:
		return whole, nil
	}
}
