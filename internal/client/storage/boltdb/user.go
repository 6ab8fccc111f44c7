package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/internal/models"
)

// SaveUser stores or updates a user
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUsers)
		if bucket == nil {
			return fmt.Errorf("users bucket not found")
		}

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}

		if err := bucket.Put([]byte(user.ID), data); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		return nil
	})
}

// GetUserByID retrieves a user by ID
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user *models.User

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUsers)
		if bucket == nil {
			return fmt.Errorf("users bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrUserNotFound
		}

		user = &models.User{}
		if err := json.Unmarshal(data, user); err != nil {
			return fmt.Errorf("failed to unmarshal user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user *models.User

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUsers)
		if bucket == nil {
			return fmt.Errorf("users bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			if user != nil {
				return nil
			}
			candidate := &models.User{}
			if err := json.Unmarshal(v, candidate); err != nil {
				return fmt.Errorf("failed to unmarshal user: %w", err)
			}
			if candidate.Username == username {
				user = candidate
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, storage.ErrUserNotFound
	}

	return user, nil
}

// ListUsers returns all locally known users ordered by username
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUsers)
		if bucket == nil {
			return fmt.Errorf("users bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			user := &models.User{}
			if err := json.Unmarshal(v, user); err != nil {
				return fmt.Errorf("failed to unmarshal user: %w", err)
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})

	return users, nil
}
