// ClipsData is a paginated response payload for the clip list.
package dto

type ClipsData struct {
	Clips        []ClipInfo `json:"clips"`
	ViolationDir string     `json:"violationDir"`
	Length       int        `json:"length"`
	TotalPages   int        `json:"totalPages"`
	CurrentPage  int        `json:"currentPage"`
	Limit        int        `json:"pageSize"`
}
