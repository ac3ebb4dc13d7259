package services

import "errors"

// Ошибки бизнес-уровня. Контроллеры сопоставляют их с HTTP-статусами
// через errors.Is; конкретика (даты, суммы, имена) добавляется оберткой
// fmt.Errorf с %w в месте возникновения.
var (
	// ErrLoanNotFound — кредит не существует или принадлежит другому пользователю
	ErrLoanNotFound = errors.New("кредит с указанным ID не существует")

	// ErrScheduleNotFound — у кредита нет графика платежей
	ErrScheduleNotFound = errors.New("график платежей для кредита с указанным ID не существует")

	// ErrScheduleExists — график платежей уже создан; повторное создание запрещено
	ErrScheduleExists = errors.New("график платежей для кредита с указанным ID уже существует")

	// ErrLoanNameTaken — имя кредита занято среди кредитов пользователя
	ErrLoanNameTaken = errors.New("кредит с таким именем уже существует")

	// ErrEmailTaken — пользователь с таким email уже зарегистрирован
	ErrEmailTaken = errors.New("пользователь с таким email уже существует")

	// ErrInvalidSchedule — переданные платежи нарушают финансовые инварианты
	// графика; весь запрос отклоняется целиком
	ErrInvalidSchedule = errors.New("недопустимый график платежей")

	// ErrImmutableLoanTerms — попытка изменить условия кредита при существующем графике
	ErrImmutableLoanTerms = errors.New("условия кредита нельзя изменять, пока существует график платежей")

	// ErrValidation — некорректные данные запроса
	ErrValidation = errors.New("некорректные данные запроса")
)
