package mailer

import "fmt"

// Шаблоны писем подсистемы. Текст нарочно минимальный — оформление
// почтовых шаблонов вне зоны ответственности этого сервиса.

func VerificationMail(code string) (subject, body string) {
	subject = "Your verification code"
	body = fmt.Sprintf(
		"Your one-time verification code is: %s\n\nThe code is valid for 2 minutes.\n", code)
	return
}

func InviteMail(baseURL, token string) (subject, body string) {
	subject = "You have been invited to the intranet"
	body = fmt.Sprintf(
		"An account has been created for you.\n\nFinish the setup here:\n%s/setup?token=%s\n\nThe link is valid for 24 hours.\n",
		baseURL, token)
	return
}
