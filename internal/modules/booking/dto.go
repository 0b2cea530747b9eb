package booking

type bookForm struct {
	SlotID string `form:"slot_id" json:"slot_id"`
}

type SlotResponse struct {
	ID      string `json:"id"`
	StartTS string `json:"start_ts"`
	EndTS   string `json:"end_ts"`
	Note    string `json:"note,omitempty"`
}
