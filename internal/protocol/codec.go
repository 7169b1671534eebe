package protocol

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// defaultDecoderBufferSize 는 JSON/YAML 디코더가 사용하는 읽기 버퍼 크기입니다.
const defaultDecoderBufferSize = 64 * 1024

// maxProtoEnvelopeBytes 는 단일 Protobuf Envelope 의 최대 크기입니다.
const maxProtoEnvelopeBytes = 512 * 1024

// ReadBufferSize 는 프레임 단위 전송 위에서 Decode 할 때 감쌀 bufio.Reader 크기입니다.
// 한 프레임 전체(길이 prefix 포함)를 담을 수 있어야 합니다.
func ReadBufferSize() int {
	return maxProtoEnvelopeBytes + 4
}

// WireCodec 는 Envelope 의 직렬화/역직렬화를 추상화합니다.
type WireCodec interface {
	Name() string
	Encode(w io.Writer, env *Envelope) error
	Decode(r io.Reader, env *Envelope) error
}

// jsonCodec 은 줄 단위 JSON 기반 WireCodec 구현입니다.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

// Encode 는 Envelope 를 JSON 한 줄로 인코딩해 작성합니다.
func (jsonCodec) Encode(w io.Writer, env *Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}

// Decode 는 JSON Envelope 한 줄을 읽습니다.
// 같은 reader 로 여러 Envelope 를 읽으려면 호출자가 *bufio.Reader 를 넘겨야 합니다.
func (jsonCodec) Decode(r io.Reader, env *Envelope) error {
	line, err := bufferedReader(r).ReadBytes('\n')
	if len(bytes.TrimSpace(line)) == 0 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	*env = Envelope{}
	if err := json.Unmarshal(line, env); err != nil {
		return fmt.Errorf("json codec: unmarshal envelope: %w", err)
	}
	return nil
}

// yamlCodec 은 YAML 문서 기반 WireCodec 구현입니다. Envelope 하나가 문서 하나입니다.
type yamlCodec struct{}

const yamlSeparator = "---"

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Encode(w io.Writer, env *Envelope) error {
	data, err := yaml.Marshal(env)
	if err != nil {
		return fmt.Errorf("yaml codec: marshal envelope: %w", err)
	}
	_, err = w.Write(append([]byte(yamlSeparator+"\n"), data...))
	return err
}

// Decode 는 다음 "---" 구분선 또는 EOF 까지를 문서 하나로 읽습니다.
// 최상위 키만 0 열에 오므로 본문 안의 "---" 는 들여쓰기되어 구분선으로 오인되지 않습니다.
func (yamlCodec) Decode(r io.Reader, env *Envelope) error {
	br := bufferedReader(r)
	var doc bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == yamlSeparator {
			if doc.Len() > 0 {
				break
			}
		} else {
			doc.WriteString(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	if len(bytes.TrimSpace(doc.Bytes())) == 0 {
		return io.EOF
	}
	*env = Envelope{}
	if err := yaml.Unmarshal(doc.Bytes(), env); err != nil {
		return fmt.Errorf("yaml codec: unmarshal envelope: %w", err)
	}
	return nil
}

// protobufCodec 은 structpb.Struct + length-prefix framing 기반 WireCodec 구현입니다.
// 한 Envelope 당 [4바이트 big-endian 길이] + [protobuf bytes] 형태로 인코딩합니다.
type protobufCodec struct{}

func (protobufCodec) Name() string { return "protobuf" }

// Encode 는 길이 prefix 와 payload 를 한 번의 Write 로 기록합니다.
// 데이터그램 전송에서는 Write 한 번이 곧 한 프레임입니다.
func (protobufCodec) Encode(w io.Writer, env *Envelope) error {
	pbEnv, err := toProtoEnvelope(env)
	if err != nil {
		return err
	}
	data, err := proto.Marshal(pbEnv)
	if err != nil {
		return fmt.Errorf("protobuf marshal envelope: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("protobuf codec: empty marshaled envelope")
	}
	if len(data) > maxProtoEnvelopeBytes {
		return fmt.Errorf("protobuf codec: envelope too large: %d bytes (max %d)", len(data), maxProtoEnvelopeBytes)
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(data)))
	copy(frame[4:], data)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("protobuf codec: write frame: %w", err)
	}
	return nil
}

// Decode 는 length-prefix 프레임에서 Envelope 를 읽어들입니다.
func (protobufCodec) Decode(r io.Reader, env *Envelope) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return fmt.Errorf("protobuf codec: read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return fmt.Errorf("protobuf codec: zero-length envelope")
	}
	if n > maxProtoEnvelopeBytes {
		return fmt.Errorf("protobuf codec: envelope too large: %d bytes (max %d)", n, maxProtoEnvelopeBytes)
	}

	buf := make([]byte, int(n))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("protobuf codec: read payload: %w", err)
	}

	var pbEnv structpb.Struct
	if err := proto.Unmarshal(buf, &pbEnv); err != nil {
		return fmt.Errorf("protobuf codec: unmarshal envelope: %w", err)
	}
	return fromProtoEnvelope(&pbEnv, env)
}

// toProtoEnvelope 는 Envelope 를 {"id", "type", "record"} 필드를 가진 structpb.Struct 로 변환합니다.
func toProtoEnvelope(env *Envelope) (*structpb.Struct, error) {
	switch env.Type {
	case MessageTypeRequest, MessageTypeResponse:
	default:
		return nil, fmt.Errorf("protobuf codec: unsupported envelope type %q", env.Type)
	}
	if env.Record == nil {
		return nil, fmt.Errorf("protobuf codec: %s envelope missing record", env.Type)
	}
	record, err := structpb.NewStruct(env.Record)
	if err != nil {
		return nil, fmt.Errorf("protobuf codec: convert record: %w", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":     structpb.NewStringValue(env.ID),
		"type":   structpb.NewStringValue(string(env.Type)),
		"record": structpb.NewStructValue(record),
	}}, nil
}

func fromProtoEnvelope(pbEnv *structpb.Struct, env *Envelope) error {
	fields := pbEnv.GetFields()
	typ := MessageType(fields["type"].GetStringValue())
	switch typ {
	case MessageTypeRequest, MessageTypeResponse:
	default:
		return fmt.Errorf("protobuf codec: unsupported envelope type %q", typ)
	}
	record := fields["record"].GetStructValue()
	if record == nil {
		return fmt.Errorf("protobuf codec: %s envelope missing record", typ)
	}
	*env = Envelope{
		ID:     fields["id"].GetStringValue(),
		Type:   typ,
		Record: Record(record.AsMap()),
	}
	return nil
}

func bufferedReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReaderSize(r, defaultDecoderBufferSize)
}

// DefaultCodec 은 별도 지정이 없을 때 사용하는 WireCodec 입니다.
var DefaultCodec WireCodec = protobufCodec{}

var codecs = map[string]WireCodec{
	"json":     jsonCodec{},
	"yaml":     yamlCodec{},
	"yml":      yamlCodec{},
	"protobuf": protobufCodec{},
	"proto":    protobufCodec{},
}

// CodecByName 은 이름(대소문자 무시)으로 WireCodec 을 찾습니다.
func CodecByName(name string) (WireCodec, error) {
	c, ok := codecs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("protocol: unknown codec %q", name)
	}
	return c, nil
}
