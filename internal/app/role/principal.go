package role

// Principal — авторизованный участник конвейера. Роль — единственный
// вход авторизации для guard-проверок переходов.
type Principal struct {
	ID   string
	Name string
	Role Role
}
