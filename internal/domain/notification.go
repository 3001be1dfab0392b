package domain

const (
	NotificationTaskAssigned  = "task_assigned"
	NotificationTaskCompleted = "task_completed"
)

type NotificationMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type TaskAssignedData struct {
	AssigneeName string `json:"assigneeName"`
	Title        string `json:"title"`
	Priority     string `json:"priority"`
	DueDate      string `json:"dueDate"`
	AssignerName string `json:"assignerName"`
}

type TaskCompletedData struct {
	CreatorName  string `json:"creatorName"`
	Title        string `json:"title"`
	AssigneeName string `json:"assigneeName"`
	CompletedAt  string `json:"completedAt"`
}
