package message

import "errors"

var (
	// ErrInvalidArgument 는 값 객체 생성/With* 에 잘못된 값이 전달된 경우 반환됩니다.
	// 구체적인 원인은 fmt.Errorf("...: %w") 로 래핑되어 전달됩니다.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyMoved 는 이미 이동된 업로드 파일에 다시 접근할 때 반환됩니다.
	ErrAlreadyMoved = errors.New("uploaded file has already been moved")

	// ErrUploadError 는 업로드 에러 코드가 OK 가 아닌 파일의 스트림/이동을 요청할 때 반환됩니다.
	ErrUploadError = errors.New("cannot retrieve stream due to upload error")
)
