package transfer

// GraphResponse is a raw Graph API JSON body, kept verbatim in the post record.
type GraphResponse map[string]interface{}

// ID returns the "id" field of a container or publish response.
func (r GraphResponse) ID() string {
	if r == nil {
		return ""
	}
	id, _ := r["id"].(string)
	return id
}

// StatusCode returns the "status_code" field of a container status response.
func (r GraphResponse) StatusCode() string {
	if r == nil {
		return ""
	}
	status, _ := r["status_code"].(string)
	return status
}

// Container processing states reported by the Instagram Graph API.
const (
	ContainerStatusFinished   = "FINISHED"
	ContainerStatusError      = "ERROR"
	ContainerStatusInProgress = "IN_PROGRESS"
)

type GraphErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}
