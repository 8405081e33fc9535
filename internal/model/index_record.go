package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// IndexRecord stores one embedded chunk of an index build. Vector holds the
// embedding as little-endian float32 values.
type IndexRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuildID   string    `gorm:"size:36;not null;index" json:"build_id"`
	ChunkID   string    `gorm:"size:36;not null" json:"chunk_id"`
	Source    string    `gorm:"size:256;not null" json:"source"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Position  int       `gorm:"not null" json:"position"`
	Overlap   int       `gorm:"not null" json:"overlap"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Vector    []byte    `gorm:"type:mediumblob" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrCorruptVector = errors.New("corrupt stored vector")

// EncodeVector packs vec for the Vector column.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a Vector column value.
func DecodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32 values", ErrCorruptVector, len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

// IndexBuild marks one complete index build. Exactly one build is active.
type IndexBuild struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Dimension int       `gorm:"not null" json:"dimension"`
	Records   int       `gorm:"not null" json:"records"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
