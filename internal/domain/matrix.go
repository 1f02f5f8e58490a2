package domain

import "errors"

// Matrix-specific validation errors
var (
	// ErrUnknownMatrix is returned when a matrix identifier is not A, B, or C.
	ErrUnknownMatrix = errors.New("unknown matrix")

	// ErrKeyOutsideDomain is returned when a quadrant key does not belong to
	// the fixed 4-key domain of the matrix it is assigned to.
	ErrKeyOutsideDomain = errors.New("quadrant key outside matrix domain")
)

// MatrixID identifies one of the three fixed classification matrices.
type MatrixID string

// The three matrices. Every task carries exactly one quadrant key per matrix.
const (
	MatrixA MatrixID = "A" // urgency x importance
	MatrixB MatrixID = "B" // desire x demand
	MatrixC MatrixID = "C" // desire x ability
)

// QuadrantKey is the enumerated identifier of one cell within a matrix.
// Keys are disjoint across matrices: Q1-Q4 belong to A, R1-R4 to B, S1-S4 to C.
type QuadrantKey string

// Matrix A (urgency x importance) quadrant keys.
const (
	KeyQ1 QuadrantKey = "Q1"
	KeyQ2 QuadrantKey = "Q2"
	KeyQ3 QuadrantKey = "Q3"
	KeyQ4 QuadrantKey = "Q4"
)

// Matrix B (desire x demand) quadrant keys.
const (
	KeyR1 QuadrantKey = "R1"
	KeyR2 QuadrantKey = "R2"
	KeyR3 QuadrantKey = "R3"
	KeyR4 QuadrantKey = "R4"
)

// Matrix C (desire x ability) quadrant keys.
const (
	KeyS1 QuadrantKey = "S1"
	KeyS2 QuadrantKey = "S2"
	KeyS3 QuadrantKey = "S3"
	KeyS4 QuadrantKey = "S4"
)

// Quadrant describes one cell of a matrix: its key, a short display title,
// and the axis combination it represents.
type Quadrant struct {
	Key   QuadrantKey `json:"key"`
	Title string      `json:"title"`
	Label string      `json:"label"`
}

// Matrix is one of the three fixed 2x2 classification schemes. The set of
// matrices and their quadrant domains is defined at process start and never
// changes.
type Matrix struct {
	ID        MatrixID    `json:"id"`
	Title     string      `json:"title"`
	XAxis     string      `json:"x_axis"`
	YAxis     string      `json:"y_axis"`
	Quadrants [4]Quadrant `json:"quadrants"`
}

// matrices holds the fixed definitions. Treated as immutable; accessors
// return copies.
var matrices = [3]Matrix{
	{
		ID:    MatrixA,
		Title: "Urgency × Importance",
		XAxis: "urgency",
		YAxis: "importance",
		Quadrants: [4]Quadrant{
			{Key: KeyQ1, Title: "Do First", Label: "urgent & important"},
			{Key: KeyQ2, Title: "Schedule", Label: "important, not urgent"},
			{Key: KeyQ3, Title: "Delegate", Label: "urgent, not important"},
			{Key: KeyQ4, Title: "Eliminate", Label: "neither urgent nor important"},
		},
	},
	{
		ID:    MatrixB,
		Title: "Desire × Demand",
		XAxis: "demand",
		YAxis: "desire",
		Quadrants: [4]Quadrant{
			{Key: KeyR1, Title: "Sweet Spot", Label: "want to do & must do"},
			{Key: KeyR2, Title: "Passion Pick", Label: "want to do, no obligation"},
			{Key: KeyR3, Title: "Grind", Label: "must do, don't want to"},
			{Key: KeyR4, Title: "Question It", Label: "neither wanted nor required"},
		},
	},
	{
		ID:    MatrixC,
		Title: "Desire × Ability",
		XAxis: "ability",
		YAxis: "desire",
		Quadrants: [4]Quadrant{
			{Key: KeyS1, Title: "Quick Win", Label: "want to do & able to do"},
			{Key: KeyS2, Title: "Growth Edge", Label: "want to do, not yet able"},
			{Key: KeyS3, Title: "Chore", Label: "able to do, don't want to"},
			{Key: KeyS4, Title: "Reconsider", Label: "neither wanted nor able"},
		},
	},
}

// AllMatrices returns the three matrix definitions in A, B, C order.
func AllMatrices() [3]Matrix {
	return matrices
}

// MatrixByID returns the definition for the given matrix.
// Returns ErrUnknownMatrix if the ID is not one of A, B, or C.
func MatrixByID(id MatrixID) (Matrix, error) {
	for _, m := range matrices {
		if m.ID == id {
			return m, nil
		}
	}
	return Matrix{}, ErrUnknownMatrix
}

// Contains reports whether the given key belongs to this matrix's domain.
func (m Matrix) Contains(key QuadrantKey) bool {
	for _, q := range m.Quadrants {
		if q.Key == key {
			return true
		}
	}
	return false
}

// Keys returns the matrix's 4-key domain in display order.
func (m Matrix) Keys() [4]QuadrantKey {
	var keys [4]QuadrantKey
	for i, q := range m.Quadrants {
		keys[i] = q.Key
	}
	return keys
}

// ValidateKey checks that key belongs to the domain of the matrix identified
// by id. Returns ErrUnknownMatrix or ErrKeyOutsideDomain on failure.
func ValidateKey(id MatrixID, key QuadrantKey) error {
	m, err := MatrixByID(id)
	if err != nil {
		return err
	}
	if !m.Contains(key) {
		return ErrKeyOutsideDomain
	}
	return nil
}
