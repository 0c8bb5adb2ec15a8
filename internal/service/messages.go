package service

import "time"

// Request and response messages of the billsplit.v1 services. They travel as
// JSON through rpc.JSONCodec.

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Bills

type Bill struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Tax        float64   `json:"tax"`
	Tip        float64   `json:"tip"`
	ReceiptURL string    `json:"receiptUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Item struct {
	ID          string   `json:"id"`
	BillID      string   `json:"billId"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	AssignedTo  []string `json:"assignedTo"`
}

type CreateBillRequest struct {
	Title string  `json:"title"`
	Tax   float64 `json:"tax"`
	Tip   float64 `json:"tip"`
}

type CreateBillResponse struct {
	Bill *Bill `json:"bill"`
}

type GetBillRequest struct {
	BillID string `json:"billId"`
}

type GetBillResponse struct {
	Bill   *Bill     `json:"bill"`
	Items  []*Item   `json:"items"`
	People []*Person `json:"people"`
}

type ListBillsRequest struct {
	// OlderThanDays, when positive, keeps only bills created more than that
	// many days ago.
	OlderThanDays int `json:"olderThanDays,omitempty"`
}

type ListBillsResponse struct {
	Bills []*Bill `json:"bills"`
}

type DeleteBillRequest struct {
	BillID string `json:"billId"`
}

type DeleteBillResponse struct{}

type SetTaxTipRequest struct {
	BillID string  `json:"billId"`
	Tax    float64 `json:"tax"`
	Tip    float64 `json:"tip"`
}

type SetTaxTipResponse struct {
	Bill *Bill `json:"bill"`
}

type AddItemRequest struct {
	BillID      string  `json:"billId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type AddItemResponse struct {
	Item *Item `json:"item"`
}

type DeleteItemRequest struct {
	ItemID string `json:"itemId"`
}

type DeleteItemResponse struct{}

type ToggleAssignmentRequest struct {
	ItemID   string `json:"itemId"`
	PersonID string `json:"personId"`
}

type ToggleAssignmentResponse struct {
	Assigned bool `json:"assigned"`
}

type LineShare struct {
	Description string  `json:"description"`
	Share       float64 `json:"share"`
}

type PersonSplit struct {
	PersonID    string       `json:"personId"`
	PersonName  string       `json:"personName"`
	PersonColor string       `json:"personColor"`
	Subtotal    float64      `json:"subtotal"`
	TaxShare    float64      `json:"taxShare"`
	TipShare    float64      `json:"tipShare"`
	Total       float64      `json:"total"`
	Lines       []*LineShare `json:"lines"`
}

type SplitResult struct {
	Policy          string         `json:"policy"`
	Splits          []*PersonSplit `json:"splits"`
	GrandTotal      float64        `json:"grandTotal"`
	AssignedTotal   float64        `json:"assignedTotal"`
	UnassignedTotal float64        `json:"unassignedTotal"`
}

type GetSplitRequest struct {
	BillID string `json:"billId"`
	Policy string `json:"policy"`
}

type GetSplitResponse struct {
	Split *SplitResult `json:"split"`
}

type WatchSplitRequest struct {
	BillID string `json:"billId"`
	Policy string `json:"policy"`
}

type WatchSplitResponse struct {
	Generation uint64       `json:"generation"`
	Reason     string       `json:"reason"`
	Split      *SplitResult `json:"split"`
}

type TipSuggestion struct {
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
}

type SuggestTipsRequest struct {
	BillID string `json:"billId"`
}

type SuggestTipsResponse struct {
	Subtotal    float64          `json:"subtotal"`
	Suggestions []*TipSuggestion `json:"suggestions"`
}

// People

type Person struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

type AddPersonRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type AddPersonResponse struct {
	Person *Person `json:"person"`
}

type ListPeopleRequest struct{}

type ListPeopleResponse struct {
	People []*Person `json:"people"`
}

type DeletePersonRequest struct {
	PersonID string `json:"personId"`
}

type DeletePersonResponse struct{}

// Analytics

type WeeklySpending struct {
	WeekNumber int       `json:"weekNumber"`
	WeekStart  time.Time `json:"weekStart"`
	WeekEnd    time.Time `json:"weekEnd"`
	Total      float64   `json:"total"`
}

type GetSpendingHistoryRequest struct{}

type GetSpendingHistoryResponse struct {
	Weeks         []*WeeklySpending `json:"weeks"`
	TotalSpending float64           `json:"totalSpending"`
	Since         time.Time         `json:"since"`
}

type PersonSpending struct {
	PersonID    string  `json:"personId"`
	PersonName  string  `json:"personName"`
	PersonColor string  `json:"personColor"`
	Total       float64 `json:"total"`
}

type GetPersonSpendingRequest struct {
	BillIDs []string `json:"billIds"`
}

type GetPersonSpendingResponse struct {
	People []*PersonSpending `json:"people"`
}

type Reminder struct {
	Bill    *Bill `json:"bill"`
	DaysOld int   `json:"daysOld"`
}

type ListRemindersRequest struct {
	// MinAgeDays overrides the configured reminder age when positive.
	MinAgeDays int `json:"minAgeDays,omitempty"`
}

type ListRemindersResponse struct {
	Reminders []*Reminder `json:"reminders"`
}

// Receipts

type ItemDraft struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type UploadReceiptRequest struct {
	BillID      string `json:"billId"`
	ContentType string `json:"contentType"`
	// Image is base64 encoded on the wire.
	Image []byte `json:"image"`
}

type UploadReceiptResponse struct {
	ReceiptURL string  `json:"receiptUrl"`
	Items      []*Item `json:"items"`
	Queued     bool    `json:"queued"`
	Warning    string  `json:"warning,omitempty"`
}

type ParseReceiptRequest struct {
	Text string `json:"text"`
}

type ParseReceiptResponse struct {
	Items []*ItemDraft `json:"items"`
}
