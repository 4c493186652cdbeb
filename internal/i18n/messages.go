package i18n

import (
	"golang.org/x/text/language"
)

// MessageID identifies a user facing message
type MessageID string

// Messages returned by the API
const (
	MsgLoginSuccess       MessageID = "login_success"
	MsgRegisterSuccess    MessageID = "register_success"
	MsgLogoutSuccess      MessageID = "logout_success"
	MsgMissingCredentials MessageID = "missing_credentials"
	MsgMissingFields      MessageID = "missing_fields"
	MsgInvalidBody        MessageID = "invalid_body"
	MsgInvalidEmail       MessageID = "invalid_email"
	MsgInvalidQuery       MessageID = "invalid_query"
	MsgInvalidCredentials MessageID = "invalid_credentials"
	MsgUnauthorized       MessageID = "unauthorized"
	MsgForbidden          MessageID = "forbidden"
	MsgNotFound           MessageID = "not_found"
	MsgUsernameTaken      MessageID = "username_taken"
	MsgConflict           MessageID = "conflict"
	MsgWorkshopFull       MessageID = "workshop_full"
	MsgAlreadyRegistered  MessageID = "already_registered"
	MsgFileRequired       MessageID = "file_required"
	MsgFileTooLarge       MessageID = "file_too_large"
	MsgFileTypeNotAllowed MessageID = "file_type_not_allowed"
	MsgTooManyRequests    MessageID = "too_many_requests"
	MsgServerError        MessageID = "server_error"
	MsgLastAdmin          MessageID = "last_admin"
	MsgSaved              MessageID = "saved"
	MsgDeleted            MessageID = "deleted"
)

var catalogue = map[language.Tag]map[MessageID]string{
	language.Persian: {
		MsgLoginSuccess:       "ورود با موفقیت انجام شد",
		MsgRegisterSuccess:    "ثبت‌نام با موفقیت انجام شد",
		MsgLogoutSuccess:      "خروج با موفقیت انجام شد",
		MsgMissingCredentials: "نام کاربری و رمز عبور الزامی است",
		MsgMissingFields:      "لطفاً فیلدهای الزامی را تکمیل کنید",
		MsgInvalidBody:        "درخواست نامعتبر است",
		MsgInvalidEmail:       "ایمیل نامعتبر است",
		MsgInvalidQuery:       "پارامتر جستجو نامعتبر است",
		MsgInvalidCredentials: "نام کاربری یا رمز عبور اشتباه است",
		MsgUnauthorized:       "لطفاً ابتدا وارد شوید",
		MsgForbidden:          "شما به این بخش دسترسی ندارید",
		MsgNotFound:           "مورد درخواستی یافت نشد",
		MsgUsernameTaken:      "نام کاربری یا ایمیل قبلاً ثبت شده است",
		MsgConflict:           "این مورد قبلاً ثبت شده است",
		MsgWorkshopFull:       "ظرفیت کارگاه تکمیل شده است",
		MsgAlreadyRegistered:  "شما قبلاً در این کارگاه ثبت‌نام کرده‌اید",
		MsgFileRequired:       "فایلی انتخاب نشده است",
		MsgFileTooLarge:       "حجم فایل بیش از حد مجاز است",
		MsgFileTypeNotAllowed: "نوع فایل مجاز نیست",
		MsgTooManyRequests:    "تعداد درخواست‌ها بیش از حد مجاز است، لطفاً بعداً تلاش کنید",
		MsgServerError:        "خطای سرور، لطفاً دوباره تلاش کنید",
		MsgLastAdmin:          "حداقل یک مدیر فعال باید باقی بماند",
		MsgSaved:              "با موفقیت ذخیره شد",
		MsgDeleted:            "با موفقیت حذف شد",
	},
	language.English: {
		MsgLoginSuccess:       "Logged in successfully",
		MsgRegisterSuccess:    "Registered successfully",
		MsgLogoutSuccess:      "Logged out successfully",
		MsgMissingCredentials: "Username and password are required",
		MsgMissingFields:      "Please fill in the required fields",
		MsgInvalidBody:        "Invalid request",
		MsgInvalidEmail:       "Invalid email address",
		MsgInvalidQuery:       "Invalid query parameter",
		MsgInvalidCredentials: "Invalid username or password",
		MsgUnauthorized:       "Please log in first",
		MsgForbidden:          "You do not have access to this section",
		MsgNotFound:           "The requested item was not found",
		MsgUsernameTaken:      "Username or email is already registered",
		MsgConflict:           "This item already exists",
		MsgWorkshopFull:       "The workshop is full",
		MsgAlreadyRegistered:  "You are already registered for this workshop",
		MsgFileRequired:       "No file was uploaded",
		MsgFileTooLarge:       "The file is too large",
		MsgFileTypeNotAllowed: "File type not allowed",
		MsgTooManyRequests:    "Too many requests, please try again later",
		MsgServerError:        "Server error, please try again",
		MsgLastAdmin:          "At least one active admin must remain",
		MsgSaved:              "Saved successfully",
		MsgDeleted:            "Deleted successfully",
	},
}

// T returns the message in the given language, falling back to Persian and
// then to the message id
func T(lang language.Tag, id MessageID) string {
	if msgs, ok := catalogue[lang]; ok {
		if m, ok := msgs[id]; ok {
			return m
		}
	}
	if m, ok := catalogue[language.Persian][id]; ok {
		return m
	}
	return string(id)
}
