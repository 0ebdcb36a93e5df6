package contracts

import "time"

// Fold is one train/validation partition produced by the splitter.
// Index slices refer to positions in the row set handed to Split.
type Fold struct {
	Index    int       `json:"index"`
	TrainIdx []int     `json:"train_idx"`
	ValIdx   []int     `json:"val_idx"`
	ValStart time.Time `json:"val_start"`
	ValEnd   time.Time `json:"val_end"`

	// Diagnostics: how many candidate training rows were dropped
	Purged    int `json:"purged"`
	Embargoed int `json:"embargoed"`
}
