package firebaseauth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
)

// SyncUser finds or creates the local user for a verified identity and
// converges name, email and the provider list on every call.
func SyncUser(repo repository.UserRepository, identity *IdentityClaims) (*models.User, error) {
	user, err := repo.GetByUID(identity.UID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup user %s: %w", identity.UID, err)
		}
		user = &models.User{
			UID:   identity.UID,
			Email: identity.Email,
			Name:  identity.Name,
		}
		user.MergeProvider(identity.Provider)
		if err := user.Validate(); err != nil {
			return nil, err
		}
		if err := repo.Create(user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", identity.UID, err)
		}
		return user, nil
	}

	changed := user.MergeProvider(identity.Provider)
	if identity.Email != "" && user.Email != identity.Email {
		user.Email = identity.Email
		changed = true
	}
	if identity.Name != "" && user.Name != identity.Name {
		user.Name = identity.Name
		changed = true
	}
	if changed {
		if err := repo.Update(user); err != nil {
			return nil, fmt.Errorf("update user %s: %w", identity.UID, err)
		}
	}
	return user, nil
}
