package queue

import (
	"encoding/json"
	"time"
)

// ReceiptJob asks a worker to extract and parse a receipt that has already
// been uploaded. It only carries references; the worker reads the image from
// the blob store.
type ReceiptJob struct {
	BillID     string    `json:"bill_id"`
	UserID     string    `json:"user_id"`
	ReceiptKey string    `json:"receipt_key"`
	ReceiptURL string    `json:"receipt_url"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReceiptJob creates a job stamped with the current time.
func NewReceiptJob(billID, userID, key, url string) *ReceiptJob {
	return &ReceiptJob{
		BillID:     billID,
		UserID:     userID,
		ReceiptKey: key,
		ReceiptURL: url,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the job to JSON bytes.
func (j *ReceiptJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// ReceiptJobFromJSON decodes a job from JSON bytes.
func ReceiptJobFromJSON(data []byte) (*ReceiptJob, error) {
	var job ReceiptJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
