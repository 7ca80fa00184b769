package voucher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"gba-rental/internal/models"
)

// PickupVoucher is the payload encoded into the QR handed to the
// customer at vehicle pickup.
type PickupVoucher struct {
	OrderID  string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	Lines    []models.OrderLine `json:"lines"`
	IssuedAt time.Time `json:"issued_at"`
}

// Generator produces AES-encrypted QR codes so the voucher contents
// cannot be forged or read off the image.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GeneratePickupQR renders the encrypted voucher for a paid order as a
// PNG QR code.
func (g *Generator) GeneratePickupQR(order models.Order) ([]byte, error) {
	v := PickupVoucher{
		OrderID:  order.OrderID,
		UserID:   order.UserID,
		Lines:    order.Lines,
		IssuedAt: time.Now(),
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
