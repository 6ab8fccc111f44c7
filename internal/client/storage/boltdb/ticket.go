package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/internal/models"
)

// SaveTicket stores or updates a ticket
func (s *Storage) SaveTicket(ctx context.Context, ticket *models.ServiceTicket) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTickets)
		if bucket == nil {
			return fmt.Errorf("tickets bucket not found")
		}

		data, err := json.Marshal(ticket)
		if err != nil {
			return fmt.Errorf("failed to marshal ticket: %w", err)
		}

		if err := bucket.Put([]byte(ticket.ID), data); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}

		return nil
	})
}

// GetTicket retrieves a ticket by ID
func (s *Storage) GetTicket(ctx context.Context, id string) (*models.ServiceTicket, error) {
	var ticket *models.ServiceTicket

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTickets)
		if bucket == nil {
			return fmt.Errorf("tickets bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrTicketNotFound
		}

		ticket = &models.ServiceTicket{}
		if err := json.Unmarshal(data, ticket); err != nil {
			return fmt.Errorf("failed to unmarshal ticket: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// ListTickets returns all local tickets ordered by creation time
func (s *Storage) ListTickets(ctx context.Context) ([]*models.ServiceTicket, error) {
	var tickets []*models.ServiceTicket

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTickets)
		if bucket == nil {
			return fmt.Errorf("tickets bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			ticket := &models.ServiceTicket{}
			if err := json.Unmarshal(v, ticket); err != nil {
				return fmt.Errorf("failed to unmarshal ticket: %w", err)
			}
			tickets = append(tickets, ticket)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})

	return tickets, nil
}

// ListTicketsByStatus returns all local tickets with the given status
func (s *Storage) ListTicketsByStatus(ctx context.Context, status models.TicketStatus) ([]*models.ServiceTicket, error) {
	all, err := s.ListTickets(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.ServiceTicket, 0, len(all))
	for _, ticket := range all {
		if ticket.Status == status {
			filtered = append(filtered, ticket)
		}
	}

	return filtered, nil
}

// PurgeTerminalBefore removes completed and cancelled tickets older
// than the cutoff. Only called after those tickets reached the server.
func (s *Storage) PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTickets)
		if bucket == nil {
			return fmt.Errorf("tickets bucket not found")
		}

		var keys [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			ticket := &models.ServiceTicket{}
			if err := json.Unmarshal(v, ticket); err != nil {
				return fmt.Errorf("failed to unmarshal ticket: %w", err)
			}

			if ticket.Status == models.TicketInProgress {
				return nil
			}
			if ticket.EffectiveTimestamp().Before(cutoff) {
				key := make([]byte, len(k))
				copy(key, k)
				keys = append(keys, key)
			}
			return nil
		}); err != nil {
			return err
		}

		for _, key := range keys {
			if err := bucket.Delete(key); err != nil {
				return fmt.Errorf("failed to delete ticket: %w", err)
			}
			removed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// NextServiceSequence returns the next value of the depot-scoped
// service number sequence
func (s *Storage) NextServiceSequence(ctx context.Context, depot string) (uint64, error) {
	var next uint64

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSeq)
		if bucket == nil {
			return fmt.Errorf("seq bucket not found")
		}

		key := []byte(depot)
		if data := bucket.Get(key); data != nil {
			next = binary.BigEndian.Uint64(data)
		}
		next++

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, next)
		return bucket.Put(key, buf)
	})
	if err != nil {
		return 0, err
	}

	return next, nil
}
