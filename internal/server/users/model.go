package users

type User struct {
	ID       string
	Username string
	Salt     []byte
	Verifier []byte
}
