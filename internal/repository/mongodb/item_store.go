package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
)

// itemDocument mirrors a stored inventory document. It has no _id field, so
// the store identifier is dropped on decode.
type itemDocument struct {
	ID           int64  `bson:"id"`
	ItemName     string `bson:"item_name"`
	Price        money  `bson:"price"`
	CostPrice    money  `bson:"cost_price"`
	UnitsSold    int    `bson:"units_sold"`
	UnitsLeft    int    `bson:"units_left"`
	ReorderPoint int    `bson:"reorder_point"`
	Description  string `bson:"description"`
}

func toDocument(item domain.InventoryItem) itemDocument {
	return itemDocument{
		ID:           item.ID,
		ItemName:     item.ItemName,
		Price:        money(item.Price),
		CostPrice:    money(item.CostPrice),
		UnitsSold:    item.UnitsSold,
		UnitsLeft:    item.UnitsLeft,
		ReorderPoint: item.ReorderPoint,
		Description:  item.Description,
	}
}

func (d itemDocument) toDomain() domain.InventoryItem {
	return domain.InventoryItem{
		ID:           d.ID,
		ItemName:     d.ItemName,
		Price:        decimal.Decimal(d.Price),
		CostPrice:    decimal.Decimal(d.CostPrice),
		UnitsSold:    d.UnitsSold,
		UnitsLeft:    d.UnitsLeft,
		ReorderPoint: d.ReorderPoint,
		Description:  d.Description,
	}
}

// patchToSet converts a patch into a $set document holding only the set fields.
func patchToSet(patch domain.ItemPatch) bson.M {
	set := bson.M{}
	if patch.ItemName != nil {
		set["item_name"] = *patch.ItemName
	}
	if patch.Price != nil {
		set["price"] = money(*patch.Price)
	}
	if patch.CostPrice != nil {
		set["cost_price"] = money(*patch.CostPrice)
	}
	if patch.UnitsSold != nil {
		set["units_sold"] = *patch.UnitsSold
	}
	if patch.UnitsLeft != nil {
		set["units_left"] = *patch.UnitsLeft
	}
	if patch.ReorderPoint != nil {
		set["reorder_point"] = *patch.ReorderPoint
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	return set
}

type ItemStore struct {
	collection *mongo.Collection
}

var _ repository.ItemStore = (*ItemStore)(nil)

// NewItemStore binds the store to a collection and ensures the unique id index
// that makes concurrent id allocation collide instead of duplicating.
func NewItemStore(ctx context.Context, db *mongo.Database, collectionName string) (*ItemStore, error) {
	store := &ItemStore{collection: db.Collection(collectionName)}
	if err := store.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *ItemStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create id index: %w", err)
	}
	return nil
}

func (s *ItemStore) FindAll(ctx context.Context) ([]domain.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	items := make([]domain.InventoryItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomain())
	}
	return items, nil
}

func (s *ItemStore) FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var doc itemDocument
	err := s.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item %d: %w", id, err)
	}
	item := doc.toDomain()
	return &item, nil
}

func (s *ItemStore) Insert(ctx context.Context, item domain.InventoryItem) error {
	if _, err := s.collection.InsertOne(ctx, toDocument(item)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert item %d: %w", item.ID, err)
	}
	return nil
}

func (s *ItemStore) Update(ctx context.Context, id int64, patch domain.ItemPatch) error {
	set := patchToSet(patch)
	if len(set) == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return nil
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update item %d: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (s *ItemStore) MaxID(ctx context.Context) (int64, bool, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})

	var doc itemDocument
	err := s.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read max id: %w", err)
	}
	return doc.ID, true, nil
}

func (s *ItemStore) SeedIfEmpty(ctx context.Context, items []domain.InventoryItem) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	if err := domain.ValidateSeed(items); err != nil {
		return false, err
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return false, fmt.Errorf("failed to count items: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, toDocument(item))
	}

	_, err = s.collection.InsertMany(ctx, docs)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to seed items: %w", err)
	}

	// The batch has distinct ids, so a collision means another writer got in
	// between the count and the insert. Only documents beyond ours prove that.
	inserted := insertedBeforeFailure(err)
	total, countErr := s.collection.CountDocuments(ctx, bson.M{})
	if countErr != nil {
		return false, fmt.Errorf("failed to seed items: %w (recount failed: %v)", err, countErr)
	}
	if !seedRaced(total, inserted) {
		return false, fmt.Errorf("failed to seed items: %w", err)
	}
	log.Warn().Err(err).Int("inserted", inserted).Msg("inventory seed raced with another writer")
	return false, nil
}

// insertedBeforeFailure returns how many documents an ordered InsertMany wrote
// before its first write error.
func insertedBeforeFailure(err error) int {
	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) > 0 {
		first := bulkErr.WriteErrors[0].Index
		for _, we := range bulkErr.WriteErrors[1:] {
			if we.Index < first {
				first = we.Index
			}
		}
		return first
	}
	return 0
}

// seedRaced reports whether the collection holds documents this seed did not write.
func seedRaced(total int64, inserted int) bool {
	return total > int64(inserted)
}
