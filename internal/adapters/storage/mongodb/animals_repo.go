package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"herd-reproduction/internal/domain/animals"
)

const animalsCollection = "animals"

// animalDoc es el documento por animal tal como vive en mongo: identidad +
// historiales embebidos. Es la forma de almacenamiento original del sistema.
type animalDoc struct {
	ID     string `bson:"_id"`
	FarmID string `bson:"farm_id,omitempty"`

	Name   string `bson:"name"`
	TagID  string `bson:"tag_id"`
	Gender string `bson:"gender"`
	Breed  string `bson:"breed,omitempty"`

	BirthDate time.Time `bson:"birth_date"`
	Status    string    `bson:"status"`

	SireID string `bson:"sire_id,omitempty"`
	DamID  string `bson:"dam_id,omitempty"`

	ReproductionRecords []reproductionDoc `bson:"reproduction_records"`
	HealthRecords       []healthDoc       `bson:"health_records"`
	WeightRecords       []weightDoc       `bson:"weight_records"`

	Notes string `bson:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type reproductionDoc struct {
	ID     string    `bson:"id"`
	Date   time.Time `bson:"date"`
	Type   string    `bson:"type"`
	MateID string    `bson:"mate_id,omitempty"`
	Notes  string    `bson:"notes,omitempty"`

	HeatIntensity    string `bson:"heat_intensity,omitempty"`
	OffspringCount   int    `bson:"offspring_count,omitempty"`
	Outcome          string `bson:"outcome,omitempty"`
	UltrasoundResult string `bson:"ultrasound_result,omitempty"`
}

type healthDoc struct {
	ID          string    `bson:"id"`
	Date        time.Time `bson:"date"`
	Kind        string    `bson:"kind"`
	Description string    `bson:"description,omitempty"`
	Notes       string    `bson:"notes,omitempty"`
}

type weightDoc struct {
	ID   string    `bson:"id"`
	Date time.Time `bson:"date"`
	Kg   float64   `bson:"kg"`
}

type animalsRepo struct {
	coll *mongo.Collection
}

func NewAnimalsRepo(db *mongo.Database) animals.Repository {
	return &animalsRepo{coll: db.Collection(animalsCollection)}
}

func (r *animalsRepo) Create(ctx context.Context, a animals.Animal) error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	_, err := r.coll.InsertOne(ctx, toDoc(a))
	if mongo.IsDuplicateKeyError(err) {
		return errors.New("animal already exists")
	}
	return err
}

func (r *animalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	var doc animalDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, err
	}
	return fromDoc(doc), nil
}

func (r *animalsRepo) List(ctx context.Context, filter animals.ListFilter) ([]animals.Animal, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Gender != "" {
		query["gender"] = string(filter.Gender)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": q, "$options": "i"}},
			bson.M{"tag_id": bson.M{"$regex": q, "$options": "i"}},
		}
	}

	limit := int64(filter.Limit)
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]animals.Animal, 0)
	for cur.Next(ctx) {
		var doc animalDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, fromDoc(doc))
	}
	return out, cur.Err()
}

// Update es un $set de los campos presentes. Los arrays de historial se
// reemplazan completos: es el contrato read-modify-write del motor, no un
// append atómico.
func (r *animalsRepo) Update(ctx context.Context, id string, fields animals.UpdateFields) error {
	set := bson.M{}

	if fields.Name != nil {
		set["name"] = *fields.Name
	}
	if fields.Status != nil {
		set["status"] = string(*fields.Status)
	}
	if fields.Breed != nil {
		set["breed"] = *fields.Breed
	}
	if fields.Notes != nil {
		set["notes"] = *fields.Notes
	}
	if fields.SireID != nil {
		set["sire_id"] = *fields.SireID
	}
	if fields.DamID != nil {
		set["dam_id"] = *fields.DamID
	}
	if fields.UpdatedAt != nil {
		set["updated_at"] = *fields.UpdatedAt
	}
	if fields.ReproductionRecords != nil {
		docs := make([]reproductionDoc, 0, len(*fields.ReproductionRecords))
		for _, rec := range *fields.ReproductionRecords {
			docs = append(docs, toReproductionDoc(rec))
		}
		set["reproduction_records"] = docs
	}
	if fields.HealthRecords != nil {
		docs := make([]healthDoc, 0, len(*fields.HealthRecords))
		for _, rec := range *fields.HealthRecords {
			docs = append(docs, healthDoc(rec))
		}
		set["health_records"] = docs
	}
	if fields.WeightRecords != nil {
		docs := make([]weightDoc, 0, len(*fields.WeightRecords))
		for _, rec := range *fields.WeightRecords {
			docs = append(docs, weightDoc(rec))
		}
		set["weight_records"] = docs
	}

	if len(set) == 0 {
		return nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": strings.TrimSpace(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func toDoc(a animals.Animal) animalDoc {
	repro := make([]reproductionDoc, 0, len(a.ReproductionRecords))
	for _, rec := range a.ReproductionRecords {
		repro = append(repro, toReproductionDoc(rec))
	}
	health := make([]healthDoc, 0, len(a.HealthRecords))
	for _, rec := range a.HealthRecords {
		health = append(health, healthDoc(rec))
	}
	weights := make([]weightDoc, 0, len(a.WeightRecords))
	for _, rec := range a.WeightRecords {
		weights = append(weights, weightDoc(rec))
	}

	return animalDoc{
		ID:                  a.ID,
		FarmID:              a.FarmID,
		Name:                a.Name,
		TagID:               a.TagID,
		Gender:              string(a.Gender),
		Breed:               a.Breed,
		BirthDate:           a.BirthDate,
		Status:              string(a.Status),
		SireID:              a.SireID,
		DamID:               a.DamID,
		ReproductionRecords: repro,
		HealthRecords:       health,
		WeightRecords:       weights,
		Notes:               a.Notes,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func fromDoc(doc animalDoc) animals.Animal {
	repro := make([]animals.ReproductionRecord, 0, len(doc.ReproductionRecords))
	for _, rec := range doc.ReproductionRecords {
		repro = append(repro, fromReproductionDoc(rec))
	}
	health := make([]animals.HealthRecord, 0, len(doc.HealthRecords))
	for _, rec := range doc.HealthRecords {
		health = append(health, animals.HealthRecord(rec))
	}
	weights := make([]animals.WeightRecord, 0, len(doc.WeightRecords))
	for _, rec := range doc.WeightRecords {
		weights = append(weights, animals.WeightRecord(rec))
	}

	return animals.Animal{
		ID:                  doc.ID,
		FarmID:              doc.FarmID,
		Name:                doc.Name,
		TagID:               doc.TagID,
		Gender:              animals.Gender(doc.Gender),
		Breed:               doc.Breed,
		BirthDate:           doc.BirthDate.UTC(),
		Status:              animals.Status(doc.Status),
		SireID:              doc.SireID,
		DamID:               doc.DamID,
		ReproductionRecords: repro,
		HealthRecords:       health,
		WeightRecords:       weights,
		Notes:               doc.Notes,
		CreatedAt:           doc.CreatedAt.UTC(),
		UpdatedAt:           doc.UpdatedAt.UTC(),
	}
}

func toReproductionDoc(rec animals.ReproductionRecord) reproductionDoc {
	return reproductionDoc{
		ID:               rec.ID,
		Date:             rec.Date,
		Type:             string(rec.Type),
		MateID:           rec.MateID,
		Notes:            rec.Notes,
		HeatIntensity:    string(rec.HeatIntensity),
		OffspringCount:   rec.OffspringCount,
		Outcome:          rec.Outcome,
		UltrasoundResult: string(rec.UltrasoundResult),
	}
}

func fromReproductionDoc(doc reproductionDoc) animals.ReproductionRecord {
	return animals.ReproductionRecord{
		ID:               doc.ID,
		Date:             doc.Date.UTC(),
		Type:             animals.RecordType(doc.Type),
		MateID:           doc.MateID,
		Notes:            doc.Notes,
		HeatIntensity:    animals.HeatIntensity(doc.HeatIntensity),
		OffspringCount:   doc.OffspringCount,
		Outcome:          doc.Outcome,
		UltrasoundResult: animals.UltrasoundResult(doc.UltrasoundResult),
	}
}
