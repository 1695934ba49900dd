package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Test case 1: Standard date/time values
	entryDate := time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(entryDate, createdAt)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedCreatedAt, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, entryDate, decodedDate, "Date should match after decode")
	assert.Equal(t, createdAt, decodedCreatedAt, "Created at time should match after decode")

	// Test case 2: Zero time values
	zeroTime := time.Time{}
	zeroToken := EncodeToken(zeroTime, zeroTime)
	decodedZeroDate, decodedZeroTime, err := DecodeToken(zeroToken)
	assert.NoError(t, err, "Decoding zero time should not return an error")
	assert.Equal(t, zeroTime, decodedZeroDate, "Zero date should match after decode")
	assert.Equal(t, zeroTime, decodedZeroTime, "Zero time should match after decode")
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, _, err := DecodeToken("not-base64!!")
	assert.Error(t, err)

	_, _, err = DecodeToken("bm8tc2VwYXJhdG9y") // "no-separator"
	assert.Error(t, err)
}

func TestEncodeDecodeEntryToken(t *testing.T) {
	entryDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	token := EncodeEntryToken(entryDate, 42)
	assert.NotEmpty(t, token)

	decodedDate, sequenceNo, err := DecodeEntryToken(token)
	assert.NoError(t, err)
	assert.Equal(t, entryDate, decodedDate)
	assert.Equal(t, int64(42), sequenceNo)
}

func TestDecodeEntryToken_Invalid(t *testing.T) {
	_, _, err := DecodeEntryToken("%%%")
	assert.Error(t, err)

	// Valid base64, bad sequence field.
	token := EncodeToken(time.Now().UTC(), time.Now().UTC())
	_, _, err = DecodeEntryToken(token)
	assert.Error(t, err)
}
