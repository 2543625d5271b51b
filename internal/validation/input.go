package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxDisplayNameLength      = 100
	MaxTaskTitleLength        = 200
	MaxTaskDetailLength       = 5000
	MaxSubmissionInfoLength   = 2000
	MaxSubmissionDetailLength = 5000
	MaxImageURLLength         = 500
	MaxPaymentSystemLength    = 50
	MaxAccountReferenceLength = 100
	MaxProviderRefLength      = 200
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// requiredText: непустая строка не длиннее max.
func requiredText(fieldName, value string, max int) error {
	if err := ValidateNonEmpty(fieldName, value); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), 1, max)
}

// ValidateEmail проверяет формат email. Пустой email допустим: его может не передать провайдер.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	return ValidateLength("отображаемое имя", strings.TrimSpace(displayName), 0, MaxDisplayNameLength)
}

// ValidateTaskTitle проверяет название задания.
func ValidateTaskTitle(title string) error {
	return requiredText("название задания", title, MaxTaskTitleLength)
}

// ValidateTaskDetail проверяет описание задания.
func ValidateTaskDetail(detail string) error {
	return requiredText("описание задания", detail, MaxTaskDetailLength)
}

// ValidateSubmissionInfo проверяет инструкцию к сдаче работы.
func ValidateSubmissionInfo(info string) error {
	return ValidateLength("инструкция к сдаче", strings.TrimSpace(info), 0, MaxSubmissionInfoLength)
}

// ValidateCompletionDate проверяет срок выполнения: он обязателен и не может быть в прошлом.
func ValidateCompletionDate(date, now time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("срок выполнения обязателен")
	}
	if date.Before(now) {
		return fmt.Errorf("срок выполнения не может быть в прошлом")
	}
	return nil
}

// ValidateSubmissionDetails проверяет текст отправки исполнителя.
func ValidateSubmissionDetails(details string) error {
	return requiredText("описание выполнения", details, MaxSubmissionDetailLength)
}

// ValidateImageURL проверяет ссылку на изображение задания.
func ValidateImageURL(link *string) error {
	if link == nil || *link == "" {
		return nil
	}

	linkStr := strings.TrimSpace(*link)
	if err := ValidateLength("ссылка на изображение", linkStr, 0, MaxImageURLLength); err != nil {
		return err
	}

	// Проверка формата URL
	parsedURL, err := url.Parse(linkStr)
	if err != nil {
		return fmt.Errorf("некорректный формат URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("ссылка должна начинаться с http:// или https://")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("ссылка должна содержать доменное имя")
	}

	return nil
}

// ValidatePayoutTarget проверяет платёжную систему и реквизиты для вывода.
func ValidatePayoutTarget(paymentSystem, accountReference string) error {
	if err := requiredText("платёжная система", paymentSystem, MaxPaymentSystemLength); err != nil {
		return err
	}
	return requiredText("реквизиты", accountReference, MaxAccountReferenceLength)
}

// ValidateProviderReference проверяет ссылку платёжного провайдера.
func ValidateProviderReference(reference string) error {
	return requiredText("ссылка провайдера", reference, MaxProviderRefLength)
}
