// Package level implementa la progresión XP → nivel que comparten el
// runtime y cualquier superficie de reporte. Todo es puro y determinista:
// dos consumidores independientes tienen que calcular exactamente los
// mismos umbrales o el leaderboard y los anuncios dejan de coincidir.
package level

import "math/big"

var (
	six     = big.NewInt(6)
	five    = big.NewInt(5)
	hundred = big.NewInt(100)
)

// Threshold devuelve el XP necesario para pasar del nivel n al n+1:
// floor(100 · 1.2^n), calculado exacto como 100·6^n/5^n para que el
// resultado no dependa del redondeo flotante de cada consumidor.
func Threshold(n int) int64 {
	bn := big.NewInt(int64(n))
	num := new(big.Int).Exp(six, bn, nil)
	num.Mul(num, hundred)
	den := new(big.Int).Exp(five, bn, nil)
	return num.Quo(num, den).Int64()
}

// CumulativeXP devuelve el XP total requerido para alcanzar un nivel.
func CumulativeXP(lvl int) int64 {
	var total int64
	for n := 0; n < lvl; n++ {
		total += Threshold(n)
	}
	return total
}

// FromXP deriva el nivel por resta sucesiva de umbrales, nunca por
// inversión de la fórmula: XP que no decrece implica nivel que no
// decrece.
func FromXP(xp int64) int {
	lvl := 0
	for xp >= Threshold(lvl) {
		xp -= Threshold(lvl)
		lvl++
	}
	return lvl
}

// Progress devuelve el nivel para xp, el XP acumulado dentro de ese
// nivel y el umbral hasta el siguiente.
func Progress(xp int64) (lvl int, into, needed int64) {
	lvl = FromXP(xp)
	into = xp - CumulativeXP(lvl)
	needed = Threshold(lvl)
	return lvl, into, needed
}
