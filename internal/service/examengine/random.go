package examengine

import (
	"math/rand"
	"sync"
	"time"
)

// Random: потокобезопасная обёртка над *rand.Rand.
// Один экземпляр разделяется генератором версий и выбором версии попытки.
type Random struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRandom создаёт источник случайности с начальным значением от текущего времени
func NewRandom() *Random {
	return NewSeededRandom(time.Now().UnixNano())
}

// NewSeededRandom создаёт детерминированный источник (для тестов)
func NewSeededRandom(seed int64) *Random {
	return &Random{rand: rand.New(rand.NewSource(seed))}
}

// Intn возвращает число из [0, n)
func (r *Random) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// shuffle переставляет n элементов по Фишеру-Йетсу: каждая перестановка равновероятна
func (r *Random) shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := r.rand.Intn(i + 1)
		swap(i, j)
	}
}
