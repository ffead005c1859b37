package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"beautybook/internal/model"
	"beautybook/internal/store"
)

func (s *Store) GetProfessional(ctx context.Context, id string) (*model.Professional, error) {
	var p model.Professional
	if err := s.professionals.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err, "professional", id)
	}
	return &p, nil
}

func (s *Store) ListProfessionals(ctx context.Context) ([]model.Professional, error) {
	cur, err := s.professionals.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	var out []model.Professional
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode professionals: %w", err)
	}
	return out, nil
}

func (s *Store) SaveProfessional(ctx context.Context, p *model.Professional) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("professional id is required")
	}
	now := time.Now().UTC()
	p.UpdatedAt = now

	doc := *p
	doc.CreatedAt = time.Time{}
	set, err := toSetDoc(doc)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	if _, err := s.professionals.UpdateOne(ctx, bson.M{"_id": p.ID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("save professional %s: %w", p.ID, err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return nil
}

// toSetDoc marshals v for a $set, without _id and created_at.
func toSetDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	delete(m, "_id")
	delete(m, "created_at")
	return m, nil
}

func (s *Store) UpdateWeeklySchedule(ctx context.Context, professionalID string, ws model.WeeklySchedule) error {
	return s.setField(ctx, professionalID, "base_schedule", ws)
}

func (s *Store) UpdateExceptions(ctx context.Context, professionalID string, list []model.ScheduleException) error {
	if list == nil {
		list = []model.ScheduleException{}
	}
	return s.setField(ctx, professionalID, "schedule_exceptions", list)
}

func (s *Store) setField(ctx context.Context, professionalID, field string, value any) error {
	res, err := s.professionals.UpdateOne(ctx,
		bson.M{"_id": professionalID},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update %s of %s: %w", field, professionalID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("professional %s: %w", professionalID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) GetTreatment(ctx context.Context, id string) (*model.Treatment, error) {
	var t model.Treatment
	if err := s.treatments.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, notFound(err, "treatment", id)
	}
	return &t, nil
}

func (s *Store) ListTreatments(ctx context.Context) ([]model.Treatment, error) {
	cur, err := s.treatments.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	var out []model.Treatment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode treatments: %w", err)
	}
	return out, nil
}

func (s *Store) SaveTreatment(ctx context.Context, t *model.Treatment) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("treatment id is required")
	}
	_, err := s.treatments.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save treatment %s: %w", t.ID, err)
	}
	return nil
}
