package constant

// Messages returned by the public chat API.
const (
	HealthMessage            = "Chatbot API is running."
	ErrMessageNoQuestion     = "質問がありません"
	ErrMessageBadFeedback    = "不完全なフィードバックデータです"
	ErrMessageGenericFailure = "エラーが発生しました。"
	FeedbackStatusSuccess    = "success"
)

// Websocket frame types.
const (
	SocketTypeQuestion = "question"
	SocketTypeAnswer   = "answer"
	SocketTypeError    = "error"
)

const (
	ChatLogTopic     = "chat_logs"
	MetricsNamespace = "faq_chatbot"
)
