package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"beautybook/internal/conflict"
	"beautybook/internal/model"
	"beautybook/internal/store"
)

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	var a model.Appointment
	if err := s.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, notFound(err, "appointment", id)
	}
	return &a, nil
}

func (s *Store) ListAppointments(ctx context.Context, professionalID, date string) ([]model.Appointment, error) {
	out, err := s.listDay(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments of %s on %s: %w", professionalID, date, err)
	}
	return out, nil
}

// listDay sorts on start_time; zero-padded "HH:MM" orders lexically.
func (s *Store) listDay(ctx context.Context, professionalID, date string) ([]model.Appointment, error) {
	cur, err := s.appointments.Find(ctx,
		bson.M{"professional_id": professionalID, "date": date},
		options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	out := []model.Appointment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// touchDay bumps the guard of (professionalID, date). Concurrent
// transactions touching the same guard hit a write conflict and the
// driver retries the loser from the start.
func (s *Store) touchDay(ctx context.Context, professionalID, date string) error {
	_, err := s.guards.UpdateOne(ctx,
		bson.M{"_id": professionalID + "|" + date},
		bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("touch day guard: %w", err)
	}
	return nil
}

func (s *Store) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if _, _, err := a.Interval(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}

	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.touchDay(sc, a.ProfessionalID, a.Date); err != nil {
			return err
		}
		existing, err := s.listDay(sc, a.ProfessionalID, a.Date)
		if err != nil {
			return fmt.Errorf("load day: %w", err)
		}
		if err := conflict.Check(existing, a.StartTime, a.Duration, ""); err != nil {
			return err
		}
		if _, err := s.appointments.InsertOne(sc, a); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
}

func (s *Store) RescheduleAppointment(ctx context.Context, a *model.Appointment) error {
	if _, _, err := a.Interval(); err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC()

	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		var current model.Appointment
		if err := s.appointments.FindOne(sc, bson.M{"_id": a.ID}).Decode(&current); err != nil {
			return notFound(err, "appointment", a.ID)
		}
		if err := s.touchDay(sc, a.ProfessionalID, a.Date); err != nil {
			return err
		}
		if current.Date != a.Date {
			if err := s.touchDay(sc, current.ProfessionalID, current.Date); err != nil {
				return err
			}
		}

		existing, err := s.listDay(sc, a.ProfessionalID, a.Date)
		if err != nil {
			return fmt.Errorf("load day: %w", err)
		}
		if err := conflict.Check(existing, a.StartTime, a.Duration, a.ID); err != nil {
			return err
		}

		_, err = s.appointments.UpdateOne(sc, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
			"date":       a.Date,
			"start_time": a.StartTime,
			"updated_at": a.UpdatedAt,
		}})
		if err != nil {
			return fmt.Errorf("reschedule appointment %s: %w", a.ID, err)
		}
		return nil
	})
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	res, err := s.appointments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update status of %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	res, err := s.appointments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
	}
	return nil
}
