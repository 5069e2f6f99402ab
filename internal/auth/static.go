package auth

import "context"

// StaticVerifier maps fixed tokens to actors. Test use only.
type StaticVerifier struct {
	actors map[string]Actor
}

func NewStaticVerifier(actors map[string]Actor) *StaticVerifier {
	return &StaticVerifier{actors: actors}
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (*Actor, error) {
	actor, ok := v.actors[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &actor, nil
}
