package diagnosis

import (
	"time"

	"github.com/wisbric/kubeowl/pkg/fault"
)

// fallbackSolutions is the static per-family template table used whenever
// the LLM is disabled, gated out, or fails.
var fallbackSolutions = map[fault.Type][]string{
	fault.TypeImagePullBackOff: {
		"이미지 이름과 태그가 정확한지 확인하십시오: kubectl describe pod YOUR_POD -n YOUR_NAMESPACE 출력의 Events에서 정확한 에러 메시지를 확인합니다.",
		"프라이빗 레지스트리라면 imagePullSecrets를 생성하고 Pod 스펙(또는 소유 컨트롤러의 템플릿)에 참조를 추가하십시오.",
		"레지스트리에 네트워크로 접근 가능한지, 레이트 리밋에 걸리지 않았는지 확인하십시오.",
	},
	fault.TypeCrashLoopBackOff: {
		"kubectl logs YOUR_POD -n YOUR_NAMESPACE --previous 로 직전 크래시의 로그를 확인하십시오.",
		"종료 코드를 확인하십시오: 137이면 OOM 또는 프로브 킬, 1이면 애플리케이션 오류, 127이면 명령 누락입니다.",
		"환경 변수, 설정 파일 참조, 기동 순서 의존성(데이터베이스 등)을 점검하십시오.",
	},
	fault.TypeOOMKilled: {
		"컨테이너 메모리 limits를 실제 사용량보다 여유 있게 상향하십시오 (소유 컨트롤러의 템플릿에서 수정).",
		"JVM 애플리케이션이면 최대 힙을 컨테이너 limit의 75% 이하로 설정하십시오.",
		"메모리 사용 추이를 확인해 누수 여부를 점검하십시오.",
	},
	fault.TypePending: {
		"kubectl describe pod YOUR_POD -n YOUR_NAMESPACE 의 Events에서 스케줄링 실패 사유를 확인하십시오.",
		"리소스 부족이면 requests를 줄이거나 노드를 증설하십시오. PVC 바인딩 문제면 StorageClass와 프로비저너를 점검하십시오.",
		"노드 셀렉터, 어피니티, 테인트/톨러레이션 설정이 현재 노드들과 맞는지 확인하십시오.",
	},
}

// genericSolutions covers every other fault family.
var genericSolutions = []string{
	"kubectl describe 출력의 Events와 상태 필드에서 정확한 에러 메시지를 확인하십시오.",
	"관련 리소스(소유 컨트롤러, ConfigMap/Secret, 볼륨, 노드)의 상태를 점검하십시오.",
	"최근 배포나 설정 변경이 있었다면 롤백을 검토하십시오.",
}

// fallbackPreventions are family-independent prevention hints.
var fallbackPreventions = []string{
	"리소스 requests/limits를 실측 기반으로 설정하고 주기적으로 재점검하십시오.",
	"배포 전 스테이징 환경에서 동일 구성으로 검증하십시오.",
	"핵심 워크로드에 알림 규칙을 설정해 장애를 조기에 탐지하십시오.",
}

// FallbackResult builds the deterministic rules-only diagnosis for a fault.
func FallbackResult(primary fault.Info, related []fault.Info) *Result {
	solutions, ok := fallbackSolutions[primary.Type]
	if !ok {
		solutions = genericSolutions
	}

	return &Result{
		Fault:         primary,
		RelatedFaults: related,
		RootCause: primary.Type.Description() + ". 자동 분석을 사용할 수 없어 규칙 기반 안내를 제공합니다. " +
			"증상과 컨텍스트를 바탕으로 아래 단계를 점검하십시오.",
		Solutions:    solutions,
		Preventions:  fallbackPreventions,
		FromFallback: true,
		CreatedAt:    time.Now().UTC(),
	}
}
