package repository

// Storage keys. They match the keys the web client historically used, so an
// exported browser snapshot can be loaded as-is.
const (
	KeyCurrentUser = "examUser"
	KeyUsers       = "examUsers"
	KeyQuestions   = "examQuestions"
	KeyAttempts    = "examAttempts"
)
