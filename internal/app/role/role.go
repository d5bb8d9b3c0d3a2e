package role

// Роли пользователей в конвейере согласования заявок
type Role int

const (
	Sales   Role = iota // отдел продаж
	Design              // конструкторский отдел
	Costing             // отдел расчёта себестоимости
	Admin               // администратор / генеральный менеджер (GM)
)

// Строковые значения ролей (используются в principal и в JWT)
func (r Role) String() string {
	switch r {
	case Sales:
		return "sales"
	case Design:
		return "design"
	case Costing:
		return "costing"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// FromString возвращает роль по строковому значению (по умолчанию Sales)
func FromString(s string) Role {
	switch s {
	case "design":
		return Design
	case "costing":
		return Costing
	case "admin":
		return Admin
	default:
		return Sales
	}
}
