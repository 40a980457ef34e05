package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type amountDoc struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalCodec(t *testing.T) {
	reg := NewRegistry()

	raw, err := bson.MarshalWithRegistry(reg, amountDoc{Amount: decimal.RequireFromString("1234.56")})
	require.NoError(t, err)
	assert.Equal(t, bsontype.Decimal128, bson.Raw(raw).Lookup("amount").Type)

	var back amountDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &back))
	assert.Equal(t, "1234.56", back.Amount.String())

	legacy := []bson.M{
		{"amount": 12.5},
		{"amount": int32(12)},
		{"amount": int64(12)},
		{"amount": "12.50"},
	}
	for _, doc := range legacy {
		raw, err := bson.Marshal(doc)
		require.NoError(t, err)
		var out amountDoc
		require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
		assert.True(t, out.Amount.GreaterThanOrEqual(decimal.NewFromInt(12)), "%v", doc)
	}

	raw, err = bson.Marshal(bson.M{"amount": true})
	require.NoError(t, err)
	var bad amountDoc
	assert.Error(t, bson.UnmarshalWithRegistry(reg, raw, &bad))
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("REDIS_DB", "two")
	t.Setenv("SCHEDULER_INTERVAL", "15m")
	t.Setenv("JOB_MAX_ATTEMPTS", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	s := LoadSettings()
	assert.True(t, s.IsDevelopment())
	assert.Equal(t, StorageMemory, s.Storage)
	assert.Equal(t, "mongodb://db:27017", s.MongoURI)
	assert.Equal(t, 0, s.RedisDB)
	assert.Equal(t, 15*time.Minute, s.SchedulerInterval)
	assert.Equal(t, 5, s.JobMaxAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.AllowedOrigins)
}

func TestMaskMongoURI(t *testing.T) {
	assert.NotContains(t, maskMongoURI("mongodb://user:hunter2@db:27017/app"), "hunter2")
}
