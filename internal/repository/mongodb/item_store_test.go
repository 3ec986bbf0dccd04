package mongodb

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

func TestDocumentRoundTrip(t *testing.T) {
	item := domain.ReferenceItems()[3]

	back := toDocument(item).toDomain()

	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, item.ItemName, back.ItemName)
	assert.True(t, item.Price.Equal(back.Price))
	assert.True(t, item.CostPrice.Equal(back.CostPrice))
	assert.Equal(t, item.ReorderPoint, back.ReorderPoint)
}

func TestDocument_PricesSurviveBSONExactly(t *testing.T) {
	item := domain.ReferenceItems()[0]
	item.Price = decimal.RequireFromString("1234567890.123456789")
	item.CostPrice = decimal.RequireFromString("0.10")

	raw, err := bson.Marshal(toDocument(item))
	require.NoError(t, err)
	assert.Equal(t, bsontype.Decimal128, bson.Raw(raw).Lookup("price").Type)

	var doc itemDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	back := doc.toDomain()

	assert.True(t, item.Price.Equal(back.Price), "got %s", back.Price)
	assert.True(t, item.CostPrice.Equal(back.CostPrice), "got %s", back.CostPrice)
}

func TestDocument_DecodesLegacyNumericPrices(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"id": int64(1), "item_name": "Rice (1kg)", "price": 12.5, "cost_price": int32(8)})
	require.NoError(t, err)

	var doc itemDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.True(t, decimal.RequireFromString("12.5").Equal(doc.toDomain().Price))
	assert.True(t, decimal.NewFromInt(8).Equal(doc.toDomain().CostPrice))
}

func TestDocument_RejectsTextPrice(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"id": int64(1), "price": "12.5"})
	require.NoError(t, err)

	var doc itemDocument
	assert.Error(t, bson.Unmarshal(raw, &doc))
}

func TestPatchToSet_OnlySetFields(t *testing.T) {
	left := 4
	price := decimal.RequireFromString("19.50")

	set := patchToSet(domain.ItemPatch{UnitsLeft: &left, Price: &price})

	assert.Len(t, set, 2)
	assert.Equal(t, 4, set["units_left"])

	raw, err := bson.Marshal(set)
	require.NoError(t, err)
	d128, ok := bson.Raw(raw).Lookup("price").Decimal128OK()
	require.True(t, ok)
	want, err := primitive.ParseDecimal128("19.50")
	require.NoError(t, err)
	assert.Equal(t, want.String(), d128.String())

	assert.Empty(t, patchToSet(domain.ItemPatch{}))
}

func TestInsertedBeforeFailure(t *testing.T) {
	err := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Index: 5, Code: 11000}},
		{WriteError: mongo.WriteError{Index: 3, Code: 11000}},
	}}

	assert.Equal(t, 3, insertedBeforeFailure(err))
	assert.Equal(t, 0, insertedBeforeFailure(errors.New("network down")))
}

func TestSeedRaced(t *testing.T) {
	// another writer's documents push the count past what this seed wrote
	assert.True(t, seedRaced(12, 0))
	assert.True(t, seedRaced(5, 3))
	// only our own partial batch is present
	assert.False(t, seedRaced(3, 3))
}
