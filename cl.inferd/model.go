/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"encoding/json"
	"io/ioutil"
	"math"

	"redsafe/base_def"

	"github.com/pkg/errors"
)

// Predictor turns a feature vector into a fall probability percentage.
type Predictor interface {
	Predict(features [base_def.INFER_FEATURE_COUNT]float64) float64
}

// logisticModel is the shipped classifier: a single logistic unit over
// the nine pose features.
type logisticModel struct {
	Weights [base_def.INFER_FEATURE_COUNT]float64 `json:"weights"`
	Bias    float64                               `json:"bias"`
}

// Default coefficients, retrained 2020-05 on the labelled fall corpus.
var defaultModel = &logisticModel{
	Weights: [base_def.INFER_FEATURE_COUNT]float64{
		1.732, -0.518, 2.094, 0.377, -1.266, 0.841, 1.455, -0.692, 0.203,
	},
	Bias: -2.814,
}

func (m *logisticModel) Predict(features [base_def.INFER_FEATURE_COUNT]float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		z += w * features[i]
	}
	return 100.0 / (1.0 + math.Exp(-z))
}

// loadModel reads logistic coefficients from a JSON file.  An empty
// path selects the built-in coefficients.
func loadModel(path string) (Predictor, error) {
	if path == "" {
		return defaultModel, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model %s", path)
	}
	var m logisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing model %s", path)
	}
	return &m, nil
}
