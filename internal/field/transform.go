// Package field реализует ядро выборки поля: преобразование фокального
// эмбеддинга в направленно смещённый вектор запроса, получение пулов
// кандидатов и их смешивание в итоговый список артворков чанка.
package field

import (
	"math"

	"github.com/met-galaxy/field-engine/internal/pca"
	"github.com/met-galaxy/field-engine/pkg/fieldmath"
)

// Derived — производные от координат чанка величины, вычисляемые один раз
// на запрос и используемые и преобразованием, и сэмплером.
type Derived struct {
	R     float64
	Theta float64
	T     float64
}

// DeriveChunk вычисляет радиус, угол и температуру чанка (x, y) относительно фокала.
func DeriveChunk(x, y int) Derived {
	r := math.Hypot(float64(x), float64(y))
	theta := math.Atan2(float64(y), float64(x))
	t := fieldmath.Smoothstep(1.5, 12.0, r)
	return Derived{R: r, Theta: theta, T: t}
}

// Bias возвращает направленное смещение в пространстве эмбеддингов для угла
// theta и температуры t, построенное из первых двух компонент базиса.
func Bias(basis *pca.Basis, theta, t float64) []float32 {
	u1 := basis.Component(0)
	u2 := basis.Component(1)

	d := fieldmath.Add(
		fieldmath.Scale(u1, math.Cos(theta)),
		fieldmath.Scale(u2, math.Sin(theta)),
	)
	d = fieldmath.Normalize(d)

	alpha := fieldmath.Lerp(0, 0.35, t)
	return fieldmath.Scale(d, alpha)
}

// QueryVector строит смещённый вектор запроса v' из нормализованного
// фокального эмбеддинга v, угла, температуры и детерминированного шума,
// взятого из rng.
func QueryVector(v []float32, basis *pca.Basis, theta, t float64, rng *fieldmath.RNG) []float32 {
	sigma := fieldmath.Lerp(0.05, 0.35, t)
	bias := Bias(basis, theta, t)
	noise := fieldmath.Scale(fieldmath.GaussianVector(len(v), rng), sigma)

	return fieldmath.Normalize(fieldmath.Add(fieldmath.Normalize(v), bias, noise))
}

// SeedFor вычисляет детерминированный сид чанка из фокала, координат и
// глобального сида запроса.
func SeedFor(focalID int64, x, y int, globalSeed uint32) uint32 {
	return fieldmath.Hash32(focalID, int64(x), int64(y), int64(globalSeed))
}

// StoreSeed сворачивает 32-битный сид чанка в [0,1) для передачи в setseed().
func StoreSeed(seed uint32) float64 {
	return float64(seed) / 4294967296.0
}
