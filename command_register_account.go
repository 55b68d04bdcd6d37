package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type RegisterAccountMessage struct {
	Kind    PrincipalKind       `json:"kind"`
	Request RegistrationRequest `json:"request"`
	// OnResponse receives the confirmation after a successful registration
	OnResponse func(c *Confirmation) `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return string(e.Kind) + ".register" }

// RegisterAccountHandler routes registration commands to the registrar of
// the message kind.
type RegisterAccountHandler struct {
	registrars map[PrincipalKind]*Registrar
}

// NewRegisterAccountHandler returns a handler for the given registrars
func NewRegisterAccountHandler(registrars ...*Registrar) *RegisterAccountHandler {
	h := &RegisterAccountHandler{registrars: map[PrincipalKind]*Registrar{}}
	for _, r := range registrars {
		if r != nil {
			h.registrars[r.Policy().Kind] = r
		}
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	registrar, ok := h.registrars[event.Kind]
	if !ok {
		return ErrUnknownPrincipalKind
	}

	confirmation, err := registrar.Register(ctx, event.Request)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(confirmation)
	}

	return nil
}
