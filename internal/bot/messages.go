package bot

const (
	msgHelp = "Commands:\n" +
		"/register - register (required for the quiz)\n" +
		"/materials - list shared materials\n" +
		"/quiz - short interactive test\n" +
		"/cancel - stop the current quiz\n" +
		"/attendance - mark yourself present today\n" +
		"/ask <question> - send a question to the admins\n\n" +
		"Admins: /broadcast <message>, /stats"

	msgStart = "Hello, %s! 👋\n\nI am an assistant bot for teachers.\n\n" + msgHelp

	msgRegistered      = "You are registered ✅\nYou can now use /materials and /quiz."
	msgNoMaterials     = "The materials folder is empty. Admins have not shared anything yet."
	msgMaterialsHeader = "Available materials:"
	msgFileNotFound    = "File not found or it has been removed."
	msgNotFound        = "Not found or no longer available."

	msgAttendanceMarked  = "Attendance marked, thank you! ✨"
	msgAttendanceAlready = "You have already marked attendance today ✅"

	msgAskUsage = "Please send it as: /ask <your question>"
	msgAskSent  = "Your question was sent to the admins. They will answer soon."

	msgRegisterFirst   = "Please /register first."
	msgNoQuestions     = "There are no quiz questions yet."
	msgQuizInProgress  = "Finish or /cancel your current quiz first."
	msgQuizNotActive   = "No active quiz. Press /quiz to start."
	msgInvalidOption   = "That option is not available for this question."
	msgCorrect         = "Correct ✅"
	msgIncorrect       = "Incorrect ❌. Correct answer: %s"
	msgQuizFinished    = "Quiz finished: %d/%d"
	msgQuizCancelled   = "Quiz cancelled."
	msgNothingToCancel = "There is no active quiz to cancel."
	msgQuestion        = "%d/%d: %s"

	msgAdminsOnly      = "This command is for admins only."
	msgBroadcastUsage  = "Please send it as: /broadcast <message>"
	msgBroadcastDone   = "Message sent to %d of %d users."
	msgStats           = "Registered users: %d\nAttendance today: %d"
	msgUploadAdminOnly = "File received, but only admins can upload materials."
	msgUploadSaved     = "File saved: %s"
	msgUploadBadName   = "The file has no usable name."

	msgUnknown = "Sorry, I did not understand that. Press /help."
	msgFailure = "Something went wrong. Please try again later."
)
