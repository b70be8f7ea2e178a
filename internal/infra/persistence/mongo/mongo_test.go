package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// The commission uniqueness must hang on referred_phone alone: two paid
// orders for the same referred member processed side by side each pass the
// count guards, and only the index keeps the second insert out.
func TestIndexModels_OneCommissionPerReferredMember(t *testing.T) {
	models, ok := indexModels()[collCommissions]
	require.True(t, ok)
	require.Len(t, models, 1)

	keys, ok := models[0].Keys.(bson.D)
	require.True(t, ok)
	require.Len(t, keys, 1)
	assert.Equal(t, "referred_phone", keys[0].Key)

	require.NotNil(t, models[0].Options)
	require.NotNil(t, models[0].Options.Unique)
	assert.True(t, *models[0].Options.Unique)
}

func TestIndexModels_UniqueNaturalKeys(t *testing.T) {
	indexes := indexModels()

	for coll, key := range map[string]string{
		collMembers:  "phone",
		collCarts:    "phone",
		collOrders:   "slug",
		collProducts: "sku",
	} {
		found := false
		for _, model := range indexes[coll] {
			keys, ok := model.Keys.(bson.D)
			if !ok || len(keys) != 1 || keys[0].Key != key {
				continue
			}
			if model.Options != nil && model.Options.Unique != nil && *model.Options.Unique {
				found = true
			}
		}
		assert.True(t, found, "collection %s needs a unique %s index", coll, key)
	}
}
