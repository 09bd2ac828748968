// Package pipelines expresses every input modality in terms of constants
// and compositions, per spec.md §4.5. Pipeline-specific logic lives
// entirely in how the input is tokenized into a sequence of child
// references; all pipelines reuse the same addressing helpers in
// internal/addr.
package pipelines
