package strgen

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type UUIDOptions struct {
	Version string `cfg:"version" def:"v4" validate:"omitempty,oneof=v1 v4 v6 v7"`
	// Compact 输出32位十六进制，不带连字符
	Compact bool `cfg:"compact"`
}

type UUIDGenerator struct {
	newUUID func() (uuid.UUID, error)
	compact bool
}

func NewUUIDGeneratorWithOptions(options *UUIDOptions) (*UUIDGenerator, error) {
	if options == nil {
		options = &UUIDOptions{}
	}

	g := &UUIDGenerator{compact: options.Compact}
	switch options.Version {
	case "v4", "":
		g.newUUID = uuid.NewRandom
	case "v1":
		g.newUUID = uuid.NewUUID
	case "v6":
		g.newUUID = uuid.NewV6
	case "v7":
		g.newUUID = uuid.NewV7
	default:
		return nil, errors.Errorf("unsupported uuid version: %s", options.Version)
	}
	return g, nil
}

func (g *UUIDGenerator) Generate() string {
	u := uuid.Must(g.newUUID())
	if g.compact {
		return hex.EncodeToString(u[:])
	}
	return u.String()
}
