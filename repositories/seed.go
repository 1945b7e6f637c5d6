package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"

	"users-server/apperrors"
	"users-server/entities"
	"users-server/logger"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk shape of an admin seed file:
//
//	admins:
//	  - user_name: root
//	    chat_id: 1
//	    password: change-me-now
type SeedFile struct {
	Admins []entities.AdminCreate `yaml:"admins"`
}

// LoadSeedFile reads and decodes path.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// SeedAdmins creates every admin in the file whose username is not taken yet.
// It returns how many were created. Existing admins are never modified.
func SeedAdmins(ctx context.Context, repo AdminRepository, path string) (int, error) {
	f, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range f.Admins {
		_, err := repo.GetByUsername(ctx, a.UserName)
		if err == nil {
			logger.Debug().Str("user_name", a.UserName).Msg("Seed admin already present")
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return created, err
		}
		if _, err := repo.Create(ctx, a); err != nil {
			return created, fmt.Errorf("seed admin %q: %w", a.UserName, err)
		}
		created++
		logger.Info().Str("user_name", a.UserName).Msg("Seeded admin")
	}
	return created, nil
}
