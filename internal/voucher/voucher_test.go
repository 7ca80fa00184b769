package voucher_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gba-rental/internal/models"
	"gba-rental/internal/voucher"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestGeneratePickupQRProducesPNG(t *testing.T) {
	gen := voucher.NewGenerator("test-secret")

	png, err := gen.GeneratePickupQR(models.Order{
		OrderID: "ord-1",
		UserID:  "user-1",
		Lines:   []models.OrderLine{{VehicleID: "veh-1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestGeneratePickupQRHandlesAnySecretLength(t *testing.T) {
	// Secrets are hashed to a fixed key size, so short and long
	// secrets both work.
	for _, secret := range []string{"x", "a-much-longer-secret-than-thirty-two-bytes-indeed"} {
		gen := voucher.NewGenerator(secret)
		png, err := gen.GeneratePickupQR(models.Order{OrderID: "ord-1"})
		require.NoError(t, err)
		assert.NotEmpty(t, png)
	}
}
