// Package fieldmath содержит детерминированные числовые примитивы, на которых
// строится выборка поля: хэш-микс, сид-генератор, гауссово распределение и
// операции над векторами фиксированной размерности.
package fieldmath

import "math"

const fnvOffset uint32 = 0x811C9DC5
const fnvPrime uint32 = 0x01000193

// Hash32 смешивает произвольное число 32-битных целых в единое детерминированное
// значение по схеме FNV-1a. Порядок аргументов влияет на результат.
func Hash32(values ...int64) uint32 {
	h := fnvOffset
	for _, v := range values {
		h ^= uint32(v)
		h *= fnvPrime
	}
	return h
}

// RNG — детерминированный псевдослучайный генератор mulberry32.
// Два RNG с одинаковым сидом производят побитово идентичные последовательности.
type RNG struct {
	state uint32
}

// NewRNG создаёт генератор с заданным 32-битным сидом.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Float64 возвращает следующее число в [0, 1).
func (r *RNG) Float64() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// Gaussian возвращает одно стандартное нормальное значение методом Бокса-Мюллера.
// Нулевые выборки отбрасываются, чтобы избежать log(0).
func Gaussian(r *RNG) float64 {
	var u1, u2 float64
	for u1 == 0 {
		u1 = r.Float64()
	}
	for u2 == 0 {
		u2 = r.Float64()
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// GaussianVector возвращает d независимых стандартных нормальных выборок.
func GaussianVector(d int, r *RNG) []float32 {
	out := make([]float32, d)
	for i := range out {
		out[i] = float32(Gaussian(r))
	}
	return out
}

// Add возвращает покомпонентную сумму векторов одинаковой длины.
func Add(vecs ...[]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i, x := range v {
			out[i] += x
		}
	}
	return out
}

// Scale возвращает вектор, умноженный на скаляр.
func Scale(v []float32, s float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * s)
	}
	return out
}

// Norm возвращает евклидову норму вектора.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize возвращает единичный вектор того же направления. Нулевой вектор
// возвращается без изменений (деление на норму 1 вместо 0).
func Normalize(v []float32) []float32 {
	n := Norm(v)
	if n == 0 {
		n = 1
	}
	return Scale(v, 1/n)
}

// Smoothstep выполняет кубическую интерполяцию Эрмита между e0 и e1, ограниченную [0,1].
func Smoothstep(e0, e1, x float64) float64 {
	const eps = 1e-9
	denom := e1 - e0
	if denom < eps {
		denom = eps
	}
	u := (x - e0) / denom
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return u * u * (3 - 2*u)
}

// Lerp выполняет линейную интерполяцию между a и b в точке t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
