package model

// DNSRecord ожидаемая DNS-запись, которую владелец должен опубликовать.
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VerificationStatus итог попытки верификации.
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationFailed  VerificationStatus = "failed"
)

// VerificationResult ответ движка верификации с диагностикой.
type VerificationResult struct {
	Status         VerificationStatus `json:"status"`
	Domain         string             `json:"domain"`
	Message        string             `json:"message"`
	Detail         string             `json:"details,omitempty"`
	ExpectedRecord DNSRecord          `json:"expected_record"`
	FoundRecords   []string           `json:"found_records,omitempty"`
}
