package reactor

import (
	"sync"

	"github.com/B3Pay/ic-reactor-sub004/pkg/display"
	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

// ValidationResult is the outcome of a validator.
type ValidationResult struct {
	Success bool
	Issues  []icerrors.ValidationIssue
}

// ValidatorFunc checks the display-form arguments of a call.
type ValidatorFunc func(args []any) ValidationResult

// DisplayReactor accepts and returns values in display form: decimal
// strings for wide integers, principal text, tagged variants.
type DisplayReactor struct {
	*Reactor

	codecs map[string]display.MethodCodec

	mu         sync.RWMutex
	validators map[string]ValidatorFunc
}

// NewDisplay builds a DisplayReactor.
func NewDisplay(params Params) (*DisplayReactor, error) {
	r, err := New(params)
	if err != nil {
		return nil, err
	}
	d := &DisplayReactor{
		Reactor:    r,
		codecs:     display.ForService(r.service),
		validators: map[string]ValidatorFunc{},
	}
	r.transformer = displayTransformer{d}
	return d, nil
}

// Codec returns the display codecs of a method.
func (d *DisplayReactor) Codec(method string) (display.MethodCodec, bool) {
	c, ok := d.codecs[method]
	return c, ok
}

// RegisterValidator installs the validator of a method, replacing any
// previous one.
func (d *DisplayReactor) RegisterValidator(method string, fn ValidatorFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.validators[method] = fn
}

func (d *DisplayReactor) UnregisterValidator(method string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.validators, method)
}

func (d *DisplayReactor) HasValidator(method string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.validators[method]
	return ok
}

// Validate runs the validator of a method, if any, against display
// arguments.
func (d *DisplayReactor) Validate(method string, args []any) error {
	d.mu.RLock()
	fn, ok := d.validators[method]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	res := fn(args)
	if res.Success {
		return nil
	}
	return icerrors.NewValidationError(method, res.Issues...)
}

type displayTransformer struct {
	d *DisplayReactor
}

func (t displayTransformer) TransformArgs(method string, args []any) ([]any, error) {
	if err := t.d.Validate(method, args); err != nil {
		return nil, err
	}
	codec, ok := t.d.codecs[method]
	if !ok {
		return args, nil
	}
	return display.TransformArgs(codec.Args, args), nil
}

func (t displayTransformer) TransformResult(method string, result any) (any, error) {
	if codec, ok := t.d.codecs[method]; ok {
		result = display.TransformResult(codec.Result, result)
	}
	return idl.ExtractOkResult(result)
}
