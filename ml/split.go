package ml

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles rows with a fixed seed and holds out testRatio of
// them. At least one row always stays in the training set.
func TrainTestSplit(features [][]float64, targets []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	n := len(features)
	if n == 0 {
		return nil, nil, nil, nil
	}

	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest > n-1 {
		nTest = n - 1
	}

	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	for i, idx := range indices {
		if i < nTest {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		} else {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY
}
