// Package wire 는 HTTP/1.x 메시지와 wire 형식 사이를 변환합니다.
//
// 파서는 입력을 한 바이트씩 읽으며 헤더 블록 끝의 빈 줄에서 멈춥니다.
// 스트림에서 읽은 경우 body 는 복사하지 않고 같은 스트림 위의 stream.Relative 로 반환됩니다.
// 직렬화 결과 문자열에는 body 가 포함되지 않으므로 body 까지 필요하면 WriteRequest/WriteResponse 를 사용합니다.
package wire
