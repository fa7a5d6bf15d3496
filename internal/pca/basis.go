// Package pca загружает и хранит базис главных компонент, построенный офлайн
// над распределением эмбеддингов, и обслуживает его как процесс-широкое
// неизменяемое состояние.
package pca

import (
	"encoding/json"
	"os"

	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/fieldmath"
)

const minComponents = 2

// artifact отражает JSON-файл, выгруженный офлайн-построителем базиса.
type artifact struct {
	Basis                [][]float32 `json:"basis"`
	ExplainedVarianceRatio []float64 `json:"explained_variance_ratio,omitempty"`
	NSamples             int         `json:"n_samples,omitempty"`
	NComponents          int         `json:"n_components,omitempty"`
	EmbeddingDim         int         `json:"embedding_dim,omitempty"`
}

// Basis — неизменяемый, L2-нормализованный список главных компонент.
type Basis struct {
	components [][]float32
	dim        int
}

// Load читает артефакт базиса с диска, нормализует каждую компоненту и
// возвращает готовый к использованию Basis. Базис с менее чем двумя
// компонентами считается недоступным.
func Load(path string) (*Basis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, e.New(e.KindPcaUnavailable, e.Wrap("pca.Load", err))
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, e.New(e.KindPcaUnavailable, e.Wrap("pca.Load", err))
	}

	if len(a.Basis) < minComponents {
		return nil, e.New(e.KindPcaUnavailable, e.ErrPcaRankTooLow)
	}

	components := make([][]float32, len(a.Basis))
	dim := len(a.Basis[0])
	for i, row := range a.Basis {
		if len(row) != dim {
			return nil, e.New(e.KindPcaUnavailable, e.Wrap("pca.Load", e.ErrInternal))
		}
		components[i] = fieldmath.Normalize(row)
	}

	return &Basis{components: components, dim: dim}, nil
}

// Component возвращает i-ю главную компоненту. i должен быть < Rank().
func (b *Basis) Component(i int) []float32 {
	return b.components[i]
}

// Rank возвращает число компонент в базисе.
func (b *Basis) Rank() int {
	return len(b.components)
}

// Dim возвращает размерность пространства эмбеддингов.
func (b *Basis) Dim() int {
	return b.dim
}
