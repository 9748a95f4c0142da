package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"StockScope/internal/model"
)

// Split shuffles samples with a seeded source and holds out ceil(n*testFraction) of them.
// Both partitions keep at least one sample.
func Split(samples []model.LabeledSample, testFraction float64, seed int64) (train, test []model.LabeledSample, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction %.3f not in (0,1)", ErrInvalidConfig, testFraction)
	}
	n := len(samples)
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 samples to split, have %d", ErrNoSamples, n)
	}

	nTest := int(math.Ceil(float64(n)*testFraction - 1e-9))
	nTest = max(1, min(nTest, n-1))

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = make([]model.LabeledSample, 0, nTest)
	train = make([]model.LabeledSample, 0, n-nTest)
	for i, p := range perm {
		if i < nTest {
			test = append(test, samples[p])
		} else {
			train = append(train, samples[p])
		}
	}
	return train, test, nil
}
