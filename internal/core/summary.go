package core

// CategorySlice is the summed amount of one category present in the input.
type CategorySlice struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// TimeBucket is the summed amount of one calendar month of a trailing window.
type TimeBucket struct {
	Label  string  `json:"label"`
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
}
