// Package memory provides an exact, in-memory implementation of driven.VectorIndex.
//
// Embeddings are L2-normalised on insert and compared by dot product, so the
// similarity is the cosine of the angle between vectors. The scan is linear in
// the number of entries, which is adequate for datasets of a few hundred
// thousand bookings.
package memory
