// Package messages holds the user-facing strings (Indonesian) shown by the
// presentation layer.
package messages

import "fmt"

const (
	NotLoggedIn    = "User belum login"
	SessionExpired = "Sesi berakhir, silakan login kembali"

	TitleEmpty    = "Judul tidak boleh kosong"
	TitleTooShort = "Judul minimal 3 karakter"
	ImageRequired = "Gambar wajib dipilih"
	ImageFormat   = "Format tidak didukung. Hanya JPG/PNG yang diperbolehkan."
	ImageInvalid  = "Gambar tidak valid"
	ImageUpload   = "Failed to upload image"

	CommentEmpty = "Komentar tidak boleh kosong"

	InvalidEmail       = "Format email tidak valid"
	PasswordTooShort   = "Password minimal 6 karakter"
	PasswordEmpty      = "Password tidak boleh kosong"
	AlreadyRegistered  = "Email sudah terdaftar. Silakan login."
	InvalidCredentials = "Email atau password salah"
	EmailNotConfirmed  = "Email belum dikonfirmasi. Cek inbox email Anda."
	EmailNotRegistered = "Email tidak terdaftar"
	SignupNeedsConfirm = "Registrasi berhasil! Silakan cek email untuk konfirmasi, lalu login."

	SignUpFailed       = "Register Gagal"
	SignInFailed       = "Login Gagal"
	ResetFailed        = "Gagal mengirim email reset password"
	FeedFailed         = "Gagal memuat feed"
	DetailFailed       = "Gagal memuat detail thread"
	CommentPostFailed  = "Gagal mengirim komentar"
	CommentDelFailed   = "Gagal menghapus komentar"
	ThreadDelFailed    = "Gagal menghapus thread"
	ThreadCreateFailed = "Gagal membuat thread"
	ImageProcessFailed = "Gagal memproses gambar"

	AnonymousUser = "Anonymous"
	DefaultUser   = "User"
)

func CaptionTooLong(max int) string {
	return fmt.Sprintf("Caption maksimal %d karakter", max)
}

func CommentTooLong(max int) string {
	return fmt.Sprintf("Komentar maksimal %d karakter", max)
}

func LogoutFailed(reason string) string {
	return "Logout gagal: " + reason
}

func ImageReadFailed(reason string) string {
	return "Gagal membaca file: " + reason
}

func ImageWillCompress(sizeKB, targetKB int64) string {
	return fmt.Sprintf("Ukuran %dKB akan dikompres menjadi ~%dKB", sizeKB, targetKB)
}
