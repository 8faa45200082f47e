package payme

// Message is the trilingual error text the gateway displays to the payer.
type Message struct {
	UZ string `json:"uz"`
	EN string `json:"en"`
	RU string `json:"ru"`
}

// Error is the JSON-RPC error object. Data names the offending account field
// for codes in the -31050..-31099 account range. State/Reason are attached
// when an operation fails because a transaction was cancelled on the spot.
type Error struct {
	Code    int     `json:"code"`
	Message Message `json:"message"`
	Data    *string `json:"data"`
	State   int     `json:"state,omitempty"`
	Reason  *int    `json:"reason,omitempty"`
}

// WithState returns a copy carrying the post-cancellation state and reason.
func (e Error) WithState(state int, reason int) *Error {
	cp := e
	cp.State = state
	cp.Reason = &reason
	return &cp
}

func fieldRef(s string) *string { return &s }

var (
	ErrInvalidAmount = &Error{
		Code: -31001,
		Message: Message{
			UZ: "Noto'g'ri summa",
			EN: "Invalid amount",
			RU: "Неверная сумма",
		},
	}
	ErrTransactionNotFound = &Error{
		Code: -31003,
		Message: Message{
			UZ: "Tranzaksiya topilmadi",
			EN: "Transaction not found",
			RU: "Транзакция не найдена",
		},
	}
	ErrCantDoOperation = &Error{
		Code: -31008,
		Message: Message{
			UZ: "Amalni bajarib bo'lmaydi",
			EN: "Can't do operation",
			RU: "Невозможно выполнить операцию",
		},
	}
	ErrUserNotFound = &Error{
		Code: -31050,
		Message: Message{
			UZ: "Foydalanuvchi topilmadi",
			EN: "User not found",
			RU: "Пользователь не найден",
		},
		Data: fieldRef("user_id"),
	}
	ErrProductNotFound = &Error{
		Code: -31050,
		Message: Message{
			UZ: "Mahsulot topilmadi",
			EN: "Product not found",
			RU: "Товар не найден",
		},
		Data: fieldRef("plan_id"),
	}
	// ErrProductOrUserNotFound is the combined account error the read-only
	// availability check reports without distinguishing which field failed.
	ErrProductOrUserNotFound = &Error{
		Code: -31050,
		Message: Message{
			UZ: "Sizda mahsulot/foydalanuvchi topilmadi",
			EN: "Product/user not found",
			RU: "Товар/пользователь не найден",
		},
	}
	ErrTransactionInProcess = &Error{
		Code: -31099,
		Message: Message{
			UZ: "Bu foydalanuvchi va tarif uchun tranzaksiya jarayonda",
			EN: "Transaction in process for this user and plan",
			RU: "Транзакция в обработке для этого пользователя и тарифа",
		},
	}
	ErrInvalidAuthorization = &Error{
		Code: -32504,
		Message: Message{
			UZ: "Avtorizatsiya yaroqsiz",
			EN: "Invalid authorization",
			RU: "Неверная авторизация",
		},
	}
)
