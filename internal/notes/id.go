package notes

import "github.com/google/uuid"

type uuidV7Provider struct{}

// NewUUIDProvider constructs an IDProvider issuing UUIDv7 identifiers.
// UUIDv7 values are time-ordered, so freshly created notes also sort
// naturally by identifier.
func NewUUIDProvider() IDProvider {
	return &uuidV7Provider{}
}

func (p *uuidV7Provider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
